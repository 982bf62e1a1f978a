package viewport

import (
	"time"

	"github.com/paulmach/orb"
)

// CommandKind discriminates camera commands.
type CommandKind string

const (
	// CommandFly moves the camera to a single center at a fixed zoom.
	CommandFly CommandKind = "fly"
	// CommandFit adjusts the camera to cover a bounding box with padding.
	CommandFit CommandKind = "fit"
)

// CameraCommand is an instruction to move the map viewport. Commands are
// fire-and-forget: a new command interrupts an in-flight animation rather
// than queueing behind it.
type CameraCommand struct {
	Kind      CommandKind
	Center    orb.Point
	Zoom      float64
	Bound     orb.Bound
	PaddingPx int
	Duration  time.Duration
}

// Options tunes camera behavior. Zero values fall back to defaults.
type Options struct {
	FocusZoom   float64
	FitPadding  int
	FlyDuration time.Duration
}

const (
	defaultFocusZoom   = 18.0
	defaultFitPadding  = 48
	defaultFlyDuration = 1500 * time.Millisecond
)

func (o Options) withDefaults() Options {
	if o.FocusZoom == 0 {
		o.FocusZoom = defaultFocusZoom
	}
	if o.FitPadding == 0 {
		o.FitPadding = defaultFitPadding
	}
	if o.FlyDuration == 0 {
		o.FlyDuration = defaultFlyDuration
	}
	return o
}

// Controller computes and tracks camera moves for the map surface. It
// keeps at most one current command; issuing a new one replaces any
// in-flight animation.
type Controller struct {
	opts    Options
	current *CameraCommand
}

// NewController creates a viewport controller.
func NewController(opts Options) *Controller {
	return &Controller{opts: opts.withDefaults()}
}

// FocusOne flies to the anchor at the configured high zoom with a
// bounded-duration eased transition.
func (c *Controller) FocusOne(anchor orb.Point) CameraCommand {
	cmd := CameraCommand{
		Kind:     CommandFly,
		Center:   anchor,
		Zoom:     c.opts.FocusZoom,
		Duration: c.opts.FlyDuration,
	}
	c.current = &cmd
	return cmd
}

// FocusMany fits the viewport to the bounding box covering all anchors.
// A single-element list degenerates to FocusOne semantics. An empty list
// is a no-op: callers are expected to check for a non-empty match set
// themselves, and the controller does not second-guess that.
func (c *Controller) FocusMany(anchors []orb.Point) (CameraCommand, bool) {
	if len(anchors) == 0 {
		return CameraCommand{}, false
	}
	if len(anchors) == 1 {
		return c.FocusOne(anchors[0]), true
	}

	bound := orb.Bound{Min: anchors[0], Max: anchors[0]}
	for _, a := range anchors[1:] {
		bound = bound.Extend(a)
	}

	cmd := CameraCommand{
		Kind:      CommandFit,
		Center:    bound.Center(),
		Bound:     bound,
		PaddingPx: c.opts.FitPadding,
		Duration:  c.opts.FlyDuration,
	}
	c.current = &cmd
	return cmd, true
}

// Current returns the command currently driving the camera, if any.
func (c *Controller) Current() (CameraCommand, bool) {
	if c.current == nil {
		return CameraCommand{}, false
	}
	return *c.current, true
}

// Reset clears the tracked command, e.g. when the screen unmounts.
func (c *Controller) Reset() {
	c.current = nil
}
