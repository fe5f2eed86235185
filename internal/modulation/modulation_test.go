package modulation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
)

func TestMap(t *testing.T) {
	cfg := Config{MinDistance: 0.2, MaxDistance: 0.6, SmoothingWindow: 1}

	t.Run("midpoint maps to 63", func(t *testing.T) {
		assert.Equal(t, 63, Map(0.4, cfg))
	})

	t.Run("range endpoints", func(t *testing.T) {
		assert.Equal(t, 0, Map(0.2, cfg))
		assert.Equal(t, 127, Map(0.6, cfg))
	})

	t.Run("outside the range clamps", func(t *testing.T) {
		assert.Equal(t, 0, Map(-5, cfg))
		assert.Equal(t, 0, Map(0.1, cfg))
		assert.Equal(t, 127, Map(0.9, cfg))
		assert.Equal(t, 127, Map(math.Inf(1), cfg))
	})

	t.Run("NaN maps to zero", func(t *testing.T) {
		assert.Equal(t, 0, Map(math.NaN(), cfg))
	})

	t.Run("reverse", func(t *testing.T) {
		rev := cfg
		rev.Reverse = true
		assert.Equal(t, 127, Map(0.2, rev))
		assert.Equal(t, 0, Map(0.6, rev))
	})

	t.Run("always in [0,127]", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			raw := (rng.Float64() - 0.25) * 4
			c := Config{MinDistance: rng.Float64() * 0.5, MaxDistance: 0.5 + rng.Float64()*0.5, Reverse: i%2 == 0}
			v := Map(raw, c)
			require.GreaterOrEqual(t, v, 0)
			require.LessOrEqual(t, v, MaxValue)
		}
	})

	t.Run("reverse mirrors within one step", func(t *testing.T) {
		rev := cfg
		rev.Reverse = true
		for d := 0.0; d <= 1.0; d += 0.01 {
			diff := Map(d, rev) - (MaxValue - Map(d, cfg))
			assert.LessOrEqual(t, math.Abs(float64(diff)), 1.0, "d=%.2f", d)
		}
	})

	t.Run("collapsed range maps to zero", func(t *testing.T) {
		assert.Equal(t, 0, Map(0.5, Config{MinDistance: 0.5, MaxDistance: 0.5}))
	})
}

func TestSmoother(t *testing.T) {
	t.Run("constant input settles exactly", func(t *testing.T) {
		s := NewSmoother(5)
		var out int
		for i := 0; i < 5; i++ {
			out = s.Push(42)
		}
		assert.Equal(t, 42, out)
	})

	t.Run("floor of mean", func(t *testing.T) {
		s := NewSmoother(3)
		s.Push(10)
		assert.Equal(t, 10, s.Value())
		assert.Equal(t, 10, s.Push(11)) // 10.5
		assert.Equal(t, 11, s.Push(13)) // 11.33
	})

	t.Run("evicts oldest", func(t *testing.T) {
		s := NewSmoother(3)
		for _, v := range []int{1, 2, 3, 4, 5} {
			s.Push(v)
		}
		assert.Equal(t, []int{3, 4, 5}, s.Values())
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, 4, s.Value())
	})

	t.Run("empty", func(t *testing.T) {
		s := NewSmoother(0)
		assert.Equal(t, 1, s.Cap())
		assert.Nil(t, s.Values())
		assert.Equal(t, 0, s.Value())
	})

	t.Run("shrink keeps newest", func(t *testing.T) {
		s := NewSmoother(5)
		for _, v := range []int{10, 20, 30, 40, 50, 60} {
			s.Push(v)
		}
		s.Resize(2)
		assert.Equal(t, []int{50, 60}, s.Values())

		s.Push(70)
		assert.Equal(t, []int{60, 70}, s.Values())
	})

	t.Run("grow keeps everything", func(t *testing.T) {
		s := NewSmoother(2)
		s.Push(1)
		s.Push(2)
		s.Push(3)
		s.Resize(4)
		assert.Equal(t, []int{2, 3}, s.Values())

		s.Push(4)
		s.Push(5)
		s.Push(6)
		assert.Equal(t, []int{3, 4, 5, 6}, s.Values())
	})

	t.Run("reset", func(t *testing.T) {
		s := NewSmoother(3)
		s.Push(9)
		s.Reset()
		assert.Equal(t, 0, s.Len())
		assert.Equal(t, 5, s.Push(5))
	})
}

func TestMapper(t *testing.T) {
	t.Run("open palm through default range", func(t *testing.T) {
		m := NewMapper(DefaultConfig())
		hand := detector.OpenPalmLandmarks()

		_, ok := m.Last()
		assert.False(t, ok)

		v := m.Update(&hand)
		// bounding box 0.56 in 0.2..0.6 -> floor(0.9 * 127)
		assert.Equal(t, 114, v)

		last, ok := m.Last()
		assert.True(t, ok)
		assert.Equal(t, v, last)
	})

	t.Run("palm width metric", func(t *testing.T) {
		cfg := Config{MinDistance: 0.1, MaxDistance: 0.3, SmoothingWindow: 1, Metric: MetricPalmWidth}
		m := NewMapper(cfg)
		hand := detector.PointingUpLandmarks()

		want := Map(math.Sqrt(0.025), cfg)
		assert.Equal(t, want, m.Update(&hand))
	})

	t.Run("reset keeps last value", func(t *testing.T) {
		m := NewMapper(DefaultConfig())
		hand := detector.OpenPalmLandmarks()
		m.Update(&hand)

		m.Reset()
		assert.Empty(t, m.History())
		last, ok := m.Last()
		assert.True(t, ok)
		assert.Equal(t, 114, last)
	})

	t.Run("set config resizes the window", func(t *testing.T) {
		m := NewMapper(DefaultConfig())
		hand := detector.OpenPalmLandmarks()
		for i := 0; i < 5; i++ {
			m.Update(&hand)
		}
		cfg := DefaultConfig()
		cfg.SmoothingWindow = 2
		m.SetConfig(cfg)
		assert.Len(t, m.History(), 2)
	})
}

func TestConfig_Normalize(t *testing.T) {
	prev := DefaultConfig()

	t.Run("valid config untouched", func(t *testing.T) {
		got, notes := prev.Normalize(prev)
		assert.Equal(t, prev, got)
		assert.Empty(t, notes)
	})

	t.Run("min pushed past max is lowered", func(t *testing.T) {
		c := prev
		c.MinDistance = 0.7
		got, notes := c.Normalize(prev)
		assert.InDelta(t, 0.595, got.MinDistance, 1e-9)
		assert.Equal(t, 0.6, got.MaxDistance)
		assert.NotEmpty(t, notes)
	})

	t.Run("max pulled below min is raised", func(t *testing.T) {
		c := prev
		c.MaxDistance = 0.1
		got, _ := c.Normalize(prev)
		assert.Equal(t, 0.2, got.MinDistance)
		assert.InDelta(t, 0.205, got.MaxDistance, 1e-9)
	})

	t.Run("equal bounds", func(t *testing.T) {
		c := prev
		c.MinDistance = 0.6
		got, _ := c.Normalize(prev)
		assert.Less(t, got.MinDistance, got.MaxDistance)
	})

	t.Run("bounds stay inside unit range", func(t *testing.T) {
		c := Config{MinDistance: 1.5, MaxDistance: 2, SmoothingWindow: 3}
		got, _ := c.Normalize(prev)
		assert.Equal(t, 1.0, got.MaxDistance)
		assert.InDelta(t, 0.995, got.MinDistance, 1e-9)

		c = Config{MinDistance: -1, MaxDistance: -0.5, SmoothingWindow: 3}
		got, _ = c.Normalize(prev)
		assert.Equal(t, 0.0, got.MinDistance)
		assert.InDelta(t, RangeStep, got.MaxDistance, 1e-9)
	})

	t.Run("window below one", func(t *testing.T) {
		c := prev
		c.SmoothingWindow = 0
		got, notes := c.Normalize(prev)
		assert.Equal(t, 1, got.SmoothingWindow)
		assert.Len(t, notes, 1)
	})

	t.Run("NaN keeps previous bound", func(t *testing.T) {
		c := prev
		c.MaxDistance = math.NaN()
		got, _ := c.Normalize(prev)
		assert.Equal(t, prev.MaxDistance, got.MaxDistance)
	})

	t.Run("invariant holds for arbitrary writes", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 500; i++ {
			c := Config{
				MinDistance:     rng.Float64()*3 - 1,
				MaxDistance:     rng.Float64()*3 - 1,
				SmoothingWindow: rng.Intn(10) - 3,
			}
			got, _ := c.Normalize(prev)
			require.Less(t, got.MinDistance, got.MaxDistance)
			require.GreaterOrEqual(t, got.MinDistance, 0.0)
			require.LessOrEqual(t, got.MaxDistance, 1.0)
			require.GreaterOrEqual(t, got.SmoothingWindow, 1)
		}
	})
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("palm_width")
	require.NoError(t, err)
	assert.Equal(t, MetricPalmWidth, m)

	m, err = ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricBoundingBox, m)

	_, err = ParseMetric("ruler")
	assert.Error(t, err)
}
