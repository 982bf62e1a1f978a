// Package screen owns the map screen's mutable state: the visible set,
// filter state, and selection. All state is mutated only in response to
// discrete user or fetch-completion events on a single event loop; there
// is no concurrent mutation and therefore no locking.
package screen

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/solterra/lotmap/internal/access"
	"github.com/solterra/lotmap/internal/filter"
	"github.com/solterra/lotmap/internal/logger"
	"github.com/solterra/lotmap/internal/models"
	"github.com/solterra/lotmap/internal/render"
	"github.com/solterra/lotmap/internal/viewport"
)

// LotFetcher retrieves the role-gated visible set. Implemented by the lot
// service; mocked in tests.
type LotFetcher interface {
	VisibleLots(ctx context.Context, role access.Role, viewer access.Viewer) ([]models.Lot, error)
}

// Controller is the screen-level state machine for the lot map. Each
// transition is an ordinary method so it can be unit-tested without any
// UI harness.
type Controller struct {
	fetcher  LotFetcher
	engine   filter.Engine
	camera   *viewport.Controller
	adapter  render.Adapter
	log      *logger.Logger

	role   access.Role
	viewer access.Viewer

	lots        []models.Lot
	filterState filter.State
	selection   string

	generation uint64
	loading    bool
	fetchErr   error
}

// NewController creates a map screen controller for the given viewer.
func NewController(fetcher LotFetcher, camera *viewport.Controller, role access.Role, viewer access.Viewer, log *logger.Logger) *Controller {
	return &Controller{
		fetcher: fetcher,
		camera:  camera,
		role:    role,
		viewer:  viewer,
		log:     log,
	}
}

// BeginLoad starts a new fetch generation and returns its token. Any
// result applied with an older token is ignored, so a slow superseded
// fetch can never overwrite a newer one.
func (c *Controller) BeginLoad() uint64 {
	c.generation++
	c.loading = true
	return c.generation
}

// ApplyResult installs a fetch result for the given generation token.
// Stale results report false and leave all state untouched.
func (c *Controller) ApplyResult(gen uint64, lots []models.Lot, err error) bool {
	if gen != c.generation {
		if c.log != nil {
			c.log.Debug("Ignoring stale fetch result", map[string]interface{}{
				"stale_generation":   gen,
				"current_generation": c.generation,
			})
		}
		return false
	}

	c.loading = false
	c.fetchErr = err
	if err != nil {
		// Keep already-loaded data; the screen stays interactive with a
		// retry affordance.
		return true
	}

	c.lots = lots

	// Drop a selection that no longer resolves to a visible lot.
	if c.selection != "" {
		if _, ok := c.lotByUID(c.selection); !ok {
			c.selection = ""
		}
	}
	return true
}

// Load runs a full fetch cycle synchronously. Callers that fetch in the
// background use BeginLoad/ApplyResult directly.
func (c *Controller) Load(ctx context.Context) error {
	gen := c.BeginLoad()
	lots, err := c.fetcher.VisibleLots(ctx, c.role, c.viewer)
	c.ApplyResult(gen, lots, err)
	return err
}

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool { return c.loading }

// LastError returns the most recent fetch error, if any. It is cleared by
// the next successful fetch.
func (c *Controller) LastError() error { return c.fetchErr }

// SetRole switches the viewer's role, e.g. after a session resync. The
// visible set must be refetched by the caller.
func (c *Controller) SetRole(role access.Role, viewer access.Viewer) {
	c.role = role
	c.viewer = viewer
}

// SetFilter replaces the active filter state. Applied directly on the
// next Results call; the catalog is small enough that debouncing is an
// optimization, not a correctness requirement.
func (c *Controller) SetFilter(st filter.State) {
	c.filterState = st
}

// FilterState returns the active filter state.
func (c *Controller) FilterState() filter.State { return c.filterState }

// Results returns the visible set with the active filters applied.
func (c *Controller) Results() []models.Lot {
	return c.engine.Apply(c.lots, c.filterState, c.role)
}

// Counts returns (shown, total) for the "N of M lots" display.
func (c *Controller) Counts() (int, int) {
	return len(c.Results()), len(c.lots)
}

// Scene builds the drawable scene for the current results.
func (c *Controller) Scene() render.Scene {
	return c.adapter.Scene(c.Results(), c.viewer, len(c.lots))
}

// Select marks the lot as highlighted and issues a fly-to command for its
// anchor. Selecting an unknown uid clears the selection and issues no
// command.
func (c *Controller) Select(uid string) (viewport.CameraCommand, bool) {
	lot, ok := c.lotByUID(uid)
	if !ok {
		c.selection = ""
		return viewport.CameraCommand{}, false
	}

	c.selection = uid
	if lot.Geometry == nil {
		return viewport.CameraCommand{}, false
	}
	return c.camera.FocusOne(lot.Geometry.Anchor()), true
}

// ClearSelection dismisses the current selection, e.g. on navigation away.
func (c *Controller) ClearSelection() {
	c.selection = ""
}

// Selected returns the currently highlighted lot, if any.
func (c *Controller) Selected() (models.Lot, bool) {
	if c.selection == "" {
		return models.Lot{}, false
	}
	return c.lotByUID(c.selection)
}

// FocusClient fits the viewport over every visible lot owned by the given
// client. Used by admin search-by-client: one bounding-box fit, not a
// sequence of fly-tos. Returns false when the client owns no visible lot.
func (c *Controller) FocusClient(client access.Viewer) (viewport.CameraCommand, bool) {
	var anchors []orb.Point
	for _, lot := range c.lots {
		if lot.Geometry == nil {
			continue
		}
		if access.OwnedBy(lot, client) {
			anchors = append(anchors, lot.Geometry.Anchor())
		}
	}
	return c.camera.FocusMany(anchors)
}

// FocusResults fits the viewport over the current filtered results.
func (c *Controller) FocusResults() (viewport.CameraCommand, bool) {
	var anchors []orb.Point
	for _, lot := range c.Results() {
		if lot.Geometry == nil {
			continue
		}
		anchors = append(anchors, lot.Geometry.Anchor())
	}
	return c.camera.FocusMany(anchors)
}

func (c *Controller) lotByUID(uid string) (models.Lot, bool) {
	for _, lot := range c.lots {
		if lot.UID == uid {
			return lot, true
		}
	}
	return models.Lot{}, false
}
