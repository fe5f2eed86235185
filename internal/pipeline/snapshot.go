package pipeline

import "time"

// HandStatus is the per-side part of a Snapshot.
type HandStatus struct {
	Detected   bool    `json:"detected"`
	Open       bool    `json:"open"`
	PointingUp bool    `json:"pointing_up"`
	Progress   float64 `json:"progress"`
	Value      int     `json:"value"`
	HasValue   bool    `json:"has_value"`
}

// Snapshot is the read-only view of one processed frame.
type Snapshot struct {
	Left         HandStatus `json:"left"`
	Right        HandStatus `json:"right"`
	ModulationOn bool       `json:"modulation_on"`

	// Progress is the control hand's confirmation progress in [0,1].
	Progress float64 `json:"progress"`

	// LastValue is the last emitted control value. It is kept when
	// modulation turns off; HasValue is false until the first emission.
	LastValue int  `json:"last_value"`
	HasValue  bool `json:"has_value"`

	FPS       float64   `json:"fps"`
	Frame     uint64    `json:"frame"`
	Timestamp time.Time `json:"ts"`
}
