package session

import (
	"errors"
	"log"

	"backend-mapty/internal/shared/geo"
	"backend-mapty/internal/workout"
)

const (
	DefaultZoom   = 13
	locationAlert = "Could not get your location!"
)

var ErrNoPendingClick = errors.New("form submitted without a pending map click")

type State int

const (
	StateLocating State = iota
	StateIdle
	StateAwaitingInput
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateLocating:
		return "locating"
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateUnavailable:
		return "unavailable"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Controller coordinates the pending map click, the form, the workout store
// and the map/list views of one session. It is not safe for concurrent use:
// every call must come from the goroutine that owns it (see Session).
type Controller struct {
	id      string
	views   Collaborators
	factory workout.Factory
	zoom    int

	state   State
	center  *geo.Point
	alert   string
	pending *geo.Point
	kind    workout.Kind
	store   *workout.Store

	// dispatch routes collaborator callbacks back onto the owning goroutine.
	dispatch func(func(*Controller))
}

type Option func(*Controller)

func WithZoom(zoom int) Option {
	return func(c *Controller) {
		if zoom > 0 {
			c.zoom = zoom
		}
	}
}

func WithFactory(f workout.Factory) Option {
	return func(c *Controller) { c.factory = f }
}

// NewController wires the form and list callbacks. The map click listener is
// registered once the map is ready.
func NewController(id string, views Collaborators, opts ...Option) *Controller {
	c := &Controller{
		id:      id,
		views:   views,
		factory: workout.NewFactory(),
		zoom:    DefaultZoom,
		state:   StateLocating,
		kind:    workout.KindRunning,
		store:   workout.NewStore(),
	}
	c.dispatch = func(fn func(*Controller)) { fn(c) }
	for _, opt := range opts {
		opt(c)
	}

	views.Form.OnSubmit(func(fields FormFields) {
		c.dispatch(func(c *Controller) { _, _ = c.OnFormSubmitted(fields) })
	})
	views.Form.OnCancel(func() {
		c.dispatch(func(c *Controller) { c.OnFormCancelled() })
	})
	views.Form.OnTypeChange(func(kind workout.Kind) {
		c.dispatch(func(c *Controller) { c.OnTypeChanged(kind) })
	})
	views.List.OnEntryClick(func(id string) {
		c.dispatch(func(c *Controller) { c.OnListEntryActivated(id) })
	})
	return c
}

func (c *Controller) State() State {
	return c.state
}

// Pending returns the map click awaiting form completion.
func (c *Controller) Pending() (geo.Point, bool) {
	if c.pending == nil {
		return geo.Point{}, false
	}
	return *c.pending, true
}

func (c *Controller) OnMapReady(center geo.Point) {
	if c.state != StateLocating {
		return
	}
	c.views.Map.OnClick(func(at geo.Point) {
		c.dispatch(func(c *Controller) { c.OnMapClicked(at) })
	})
	c.state = StateIdle
	c.center = &center
	c.views.Map.Initialize(center, c.zoom)
}

// OnLocationFailed puts the session in degraded mode: the map is never
// initialized and map-dependent operations become no-ops.
func (c *Controller) OnLocationFailed(err error) {
	if c.state != StateLocating {
		return
	}
	log.Printf("session %s: geolocation failed: %v", c.id, err)
	c.state = StateUnavailable
	c.alert = locationAlert
	if c.views.Alerts != nil {
		c.views.Alerts.Alert(c.alert)
	}
}

// OnMapClicked records the click as pending, replacing any earlier one.
func (c *Controller) OnMapClicked(at geo.Point) {
	if c.state != StateIdle && c.state != StateAwaitingInput {
		return
	}
	c.pending = &at
	c.state = StateAwaitingInput
	c.views.Form.Show()
	c.views.Form.FocusFirstField()
}

// OnFormSubmitted validates the fields and logs a workout at the pending
// click. Validation failures are shown on the form and keep the pending
// click; ErrNoPendingClick means the caller broke the click-then-submit order.
func (c *Controller) OnFormSubmitted(fields FormFields) (workout.Record, error) {
	if c.state != StateAwaitingInput || c.pending == nil {
		log.Printf("session %s: %v (state %s)", c.id, ErrNoPendingClick, c.state)
		return workout.Record{}, ErrNoPendingClick
	}

	rec, err := c.build(*c.pending, fields)
	if err != nil {
		var verr *workout.ValidationError
		if errors.As(err, &verr) {
			c.views.Form.ShowValidation(verr.UserMessage())
		}
		return workout.Record{}, err
	}

	if err := c.store.Append(rec); err != nil {
		log.Printf("session %s: store append: %v", c.id, err)
		return workout.Record{}, err
	}

	c.views.Map.PlaceMarker(*c.pending, popupLabel(rec), markerClass(rec))
	c.views.List.AppendEntry(renderEntry(rec))
	c.pending = nil
	c.views.Form.Hide()
	c.state = StateIdle
	return rec, nil
}

func (c *Controller) build(at geo.Point, fields FormFields) (workout.Record, error) {
	kind, err := fields.kind()
	if err != nil {
		return workout.Record{}, err
	}
	distance, duration := fields.Distance.Float(), fields.Duration.Float()
	switch kind {
	case workout.KindCycling:
		return c.factory.NewCycling(at, distance, duration, fields.Elevation.Float())
	default:
		return c.factory.NewRunning(at, distance, duration, fields.Cadence.Float())
	}
}

func (c *Controller) OnFormCancelled() {
	if c.state != StateAwaitingInput {
		return
	}
	c.pending = nil
	c.views.Form.Hide()
	c.state = StateIdle
}

// OnTypeChanged shows the input row of the selected variant.
func (c *Controller) OnTypeChanged(kind workout.Kind) {
	if _, ok := workout.ParseKind(string(kind)); !ok || kind == c.kind {
		return
	}
	c.kind = kind
	c.views.Form.ShowVariantRow(kind)
}

// OnListEntryActivated centers the map on the workout and counts the
// activation. Unknown ids are ignored.
func (c *Controller) OnListEntryActivated(id string) (workout.Record, bool) {
	rec, ok := c.store.FindByID(id)
	if !ok {
		return workout.Record{}, false
	}
	if c.state != StateUnavailable && c.state != StateLocating {
		at := rec.Coords()
		c.center = &at
		c.views.Map.PanTo(at, true)
	}
	return c.store.RecordInteraction(id)
}

// Snapshot is a read-only view of the controller for HTTP responses. A
// client that connects after the map became ready or after the location
// alert was raised rebuilds its view from Center, Zoom and Alert.
type Snapshot struct {
	ID       string           `json:"id"`
	State    State            `json:"state"`
	Center   *geo.Point       `json:"center,omitempty"`
	Zoom     int              `json:"zoom"`
	Alert    string           `json:"alert,omitempty"`
	Pending  *geo.Point       `json:"pending,omitempty"`
	FormType workout.Kind     `json:"form_type"`
	Workouts []workout.Record `json:"workouts"`
}

func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		ID:       c.id,
		State:    c.state,
		Zoom:     c.zoom,
		Alert:    c.alert,
		FormType: c.kind,
		Workouts: c.Workouts(),
	}
	if c.center != nil {
		center := *c.center
		snap.Center = &center
	}
	if p, ok := c.Pending(); ok {
		snap.Pending = &p
	}
	return snap
}

func (c *Controller) Workouts() []workout.Record {
	out := make([]workout.Record, 0, c.store.Len())
	for r := range c.store.All() {
		out = append(out, r)
	}
	return out
}
