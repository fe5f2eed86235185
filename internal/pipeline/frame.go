// Package pipeline runs the per-frame gesture and modulation logic.
package pipeline

import (
	"sort"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// FrameObservation is what the pose estimator reports for one frame.
// Hands may carry a handedness label or leave it empty.
type FrameObservation struct {
	Hands     []detector.HandLandmarks `json:"hands"`
	Timestamp time.Time                `json:"ts"`
}

// HandObservation is a hand with its resolved side.
type HandObservation struct {
	Side detector.Side
	Hand detector.HandLandmarks
}

// Index into the array returned by ResolveSides.
const (
	LeftSlot  = 0
	RightSlot = 1
)

func slot(side detector.Side) int {
	if side == detector.SideLeft {
		return LeftSlot
	}
	return RightSlot
}

// ResolveSides assigns at most one hand to each side.
//
// When mirrored is set the frame was flipped upstream, so labels are swapped
// and x is reflected before anything else. If every hand carries a label and
// no label repeats, the labels are used. Otherwise the first two hands are
// placed by wrist x, leftmost on the Left; a single unlabeled hand goes by
// the frame midline. Extra hands are dropped.
func ResolveSides(hands []detector.HandLandmarks, mirrored bool) [2]*HandObservation {
	var out [2]*HandObservation
	if len(hands) == 0 {
		return out
	}

	obs := make([]HandObservation, len(hands))
	for i, h := range hands {
		side := h.Side()
		if mirrored {
			h = h.Clone()
			for j := range h.Points {
				h.Points[j].X = 1 - h.Points[j].X
			}
			side = side.Opposite()
			h.Handedness = labelFor(side)
		}
		obs[i] = HandObservation{Side: side, Hand: h}
	}

	if labelsUsable(obs) {
		for i := range obs {
			o := obs[i]
			out[slot(o.Side)] = &o
		}
		return out
	}

	if len(obs) > 2 {
		obs = obs[:2]
	}

	if len(obs) == 1 {
		o := obs[0]
		o.Side = detector.SideRight
		if wristX(&o.Hand) < 0.5 {
			o.Side = detector.SideLeft
		}
		out[slot(o.Side)] = &o
		return out
	}

	sort.SliceStable(obs, func(i, j int) bool {
		return wristX(&obs[i].Hand) < wristX(&obs[j].Hand)
	})
	left, right := obs[0], obs[1]
	left.Side, right.Side = detector.SideLeft, detector.SideRight
	out[LeftSlot], out[RightSlot] = &left, &right
	return out
}

func labelsUsable(obs []HandObservation) bool {
	if len(obs) > 2 {
		return false
	}
	seen := map[detector.Side]bool{}
	for _, o := range obs {
		if o.Side == detector.SideUnknown || seen[o.Side] {
			return false
		}
		seen[o.Side] = true
	}
	return true
}

func wristX(h *detector.HandLandmarks) float64 {
	if len(h.Points) == 0 {
		return 0.5
	}
	return h.Points[detector.Wrist].X
}

func labelFor(s detector.Side) string {
	if s == detector.SideUnknown {
		return ""
	}
	return s.String()
}
