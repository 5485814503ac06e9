package layout

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
)

// Default tuning values. All distances are in layout units (pixels when
// rendered to SVG at scale 1).
const (
	DefaultMargin            = 10.0
	DefaultNodeSpacing       = 20.0
	DefaultRoutingWidth      = 40.0
	DefaultWidenStep         = 20.0
	DefaultChannelStep       = 10.0
	DefaultLaneStep          = 5.0
	DefaultLaneClearance     = 5.0
	DefaultConflictTolerance = 1.0
	DefaultNudgeStep         = 3.0
	DefaultMaxNudges         = 4
	DefaultDogLeg            = 5.0
	DefaultMaxAttempts       = 256
	DefaultHitTolerance      = 4.0
)

// Bounds enforced by [Options.Validate]. Steps below MinStep or distances
// above MaxDistance make the search loops and channel lists degenerate.
const (
	MinStep              = 0.5
	MaxDistance          = 1e6
	MaxChannelsPerColumn = 1024
	MaxAttemptsLimit     = 4096
	MaxNudgesLimit       = 64
)

// ErrInvalidOptions is returned by [Options.Validate] and by
// [Engine.Refresh] when the options are out of bounds.
var ErrInvalidOptions = errors.New("invalid layout options")

// Options tunes the layout engine. Zero fields take the defaults above, so a
// partially filled Options (for example decoded from a config file) is valid
// after [Options.SetDefaults].
type Options struct {
	// Margin is the gap above the first node of every column and left of
	// the first column.
	Margin float64 `toml:"margin" json:"margin,omitempty"`
	// NodeSpacing is the vertical gap left between packed nodes.
	NodeSpacing float64 `toml:"node_spacing" json:"node_spacing,omitempty"`
	// RoutingWidth is the initial width of the strip between two node
	// columns. It grows by WidenStep whenever a strip runs out of channels.
	RoutingWidth float64 `toml:"routing_width" json:"routing_width,omitempty"`
	WidenStep    float64 `toml:"widen_step" json:"widen_step,omitempty"`
	// ChannelStep is the spacing between candidate channel x-coordinates.
	ChannelStep float64 `toml:"channel_step" json:"channel_step,omitempty"`
	// LaneStep and LaneClearance control the search for a horizontal lane
	// through the next node column.
	LaneStep      float64 `toml:"lane_step" json:"lane_step,omitempty"`
	LaneClearance float64 `toml:"lane_clearance" json:"lane_clearance,omitempty"`
	// ConflictTolerance is how close in y two horizontal segments may be
	// before they are considered colliding.
	ConflictTolerance float64 `toml:"conflict_tolerance" json:"conflict_tolerance,omitempty"`
	NudgeStep         float64 `toml:"nudge_step" json:"nudge_step,omitempty"`
	MaxNudges         int     `toml:"max_nudges" json:"max_nudges,omitempty"`
	// DogLeg is the width of the jog appended when the final segment of a
	// path is nudged off the destination port's y.
	DogLeg float64 `toml:"dog_leg" json:"dog_leg,omitempty"`
	// MaxAttempts caps the place/route/widen loop of a single refresh.
	MaxAttempts int `toml:"max_attempts" json:"max_attempts,omitempty"`
	// HitTolerance is the pick distance for path hit testing.
	HitTolerance float64 `toml:"hit_tolerance" json:"hit_tolerance,omitempty"`

	// Measurer sizes node text. Defaults to [DefaultMeasurer].
	Measurer Measurer `toml:"-" json:"-"`
	// Logger receives debug and diagnostic output. Defaults to a discarding logger.
	Logger *log.Logger `toml:"-" json:"-"`
}

// DefaultOptions returns Options with every field set to its default.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills zero fields with defaults. It is idempotent.
func (o *Options) SetDefaults() {
	setDefault(&o.Margin, DefaultMargin)
	setDefault(&o.NodeSpacing, DefaultNodeSpacing)
	setDefault(&o.RoutingWidth, DefaultRoutingWidth)
	setDefault(&o.WidenStep, DefaultWidenStep)
	setDefault(&o.ChannelStep, DefaultChannelStep)
	setDefault(&o.LaneStep, DefaultLaneStep)
	setDefault(&o.LaneClearance, DefaultLaneClearance)
	setDefault(&o.ConflictTolerance, DefaultConflictTolerance)
	setDefault(&o.NudgeStep, DefaultNudgeStep)
	setDefault(&o.DogLeg, DefaultDogLeg)
	setDefault(&o.HitTolerance, DefaultHitTolerance)
	if o.MaxNudges <= 0 {
		o.MaxNudges = DefaultMaxNudges
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Measurer == nil {
		o.Measurer = DefaultMeasurer
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Fill returns o with every zero field taken from def. It layers request or
// flag values over configured defaults.
func (o Options) Fill(def Options) Options {
	setDefault(&o.Margin, def.Margin)
	setDefault(&o.NodeSpacing, def.NodeSpacing)
	setDefault(&o.RoutingWidth, def.RoutingWidth)
	setDefault(&o.WidenStep, def.WidenStep)
	setDefault(&o.ChannelStep, def.ChannelStep)
	setDefault(&o.LaneStep, def.LaneStep)
	setDefault(&o.LaneClearance, def.LaneClearance)
	setDefault(&o.ConflictTolerance, def.ConflictTolerance)
	setDefault(&o.NudgeStep, def.NudgeStep)
	setDefault(&o.DogLeg, def.DogLeg)
	setDefault(&o.HitTolerance, def.HitTolerance)
	if o.MaxNudges <= 0 {
		o.MaxNudges = def.MaxNudges
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = def.MaxAttempts
	}
	if o.Measurer == nil {
		o.Measurer = def.Measurer
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	return o
}

func setDefault(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}

// Validate reports values that SetDefaults cannot repair: non-finite or
// oversized distances, steps below MinStep, and loop caps above their
// limits. Call it after SetDefaults; zero fields are rejected.
func (o Options) Validate() error {
	distances := []struct {
		name string
		v    float64
		min  float64
	}{
		{"margin", o.Margin, 0},
		{"node_spacing", o.NodeSpacing, 0},
		{"routing_width", o.RoutingWidth, 0},
		{"lane_clearance", o.LaneClearance, 0},
		{"conflict_tolerance", o.ConflictTolerance, 0},
		{"dog_leg", o.DogLeg, 0},
		{"hit_tolerance", o.HitTolerance, 0},
		{"widen_step", o.WidenStep, MinStep},
		{"channel_step", o.ChannelStep, MinStep},
		{"lane_step", o.LaneStep, MinStep},
		{"nudge_step", o.NudgeStep, MinStep},
	}
	for _, d := range distances {
		switch {
		case math.IsNaN(d.v) || math.IsInf(d.v, 0):
			return fmt.Errorf("%w: %s is not finite", ErrInvalidOptions, d.name)
		case d.v <= 0 || d.v < d.min:
			return fmt.Errorf("%w: %s = %g is too small", ErrInvalidOptions, d.name, d.v)
		case d.v > MaxDistance:
			return fmt.Errorf("%w: %s = %g exceeds %g", ErrInvalidOptions, d.name, d.v, float64(MaxDistance))
		}
	}
	if o.MaxAttempts < 1 || o.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("%w: max_attempts = %d, must be in [1, %d]", ErrInvalidOptions, o.MaxAttempts, MaxAttemptsLimit)
	}
	if o.MaxNudges < 1 || o.MaxNudges > MaxNudgesLimit {
		return fmt.Errorf("%w: max_nudges = %d, must be in [1, %d]", ErrInvalidOptions, o.MaxNudges, MaxNudgesLimit)
	}
	return nil
}
