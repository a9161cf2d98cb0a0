package session

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"backend-mapty/internal/shared/clock"
	"backend-mapty/internal/shared/geo"
	"backend-mapty/internal/workout"
)

type marker struct {
	at    geo.Point
	popup string
	class string
}

type pan struct {
	to       geo.Point
	animated bool
}

type fakeMap struct {
	initialized bool
	center      geo.Point
	zoom        int
	onClick     func(geo.Point)
	markers     []marker
	pans        []pan
}

func (m *fakeMap) Initialize(center geo.Point, zoom int) {
	m.initialized = true
	m.center = center
	m.zoom = zoom
}
func (m *fakeMap) OnClick(handler func(geo.Point)) { m.onClick = handler }
func (m *fakeMap) PlaceMarker(at geo.Point, popup, class string) {
	m.markers = append(m.markers, marker{at: at, popup: popup, class: class})
}
func (m *fakeMap) PanTo(at geo.Point, animated bool) {
	m.pans = append(m.pans, pan{to: at, animated: animated})
}

type fakeForm struct {
	visible      bool
	focused      int
	variant      workout.Kind
	variantCalls int
	validations  []string
	onSubmit     func(FormFields)
	onCancel     func()
	onType       func(workout.Kind)
}

func (f *fakeForm) Show()            { f.visible = true }
func (f *fakeForm) Hide()            { f.visible = false }
func (f *fakeForm) FocusFirstField() { f.focused++ }
func (f *fakeForm) ShowVariantRow(kind workout.Kind) {
	f.variant = kind
	f.variantCalls++
}
func (f *fakeForm) ShowValidation(message string)           { f.validations = append(f.validations, message) }
func (f *fakeForm) OnSubmit(handler func(FormFields))       { f.onSubmit = handler }
func (f *fakeForm) OnCancel(handler func())                 { f.onCancel = handler }
func (f *fakeForm) OnTypeChange(handler func(workout.Kind)) { f.onType = handler }

type fakeList struct {
	entries []Entry
	onClick func(string)
}

func (l *fakeList) AppendEntry(entry Entry)           { l.entries = append(l.entries, entry) }
func (l *fakeList) OnEntryClick(handler func(string)) { l.onClick = handler }

type fakeAlerts struct {
	messages []string
}

func (a *fakeAlerts) Alert(message string) { a.messages = append(a.messages, message) }

type fakeInbox struct {
	received chan []byte
	err      error
}

func (i *fakeInbox) Deliver(raw []byte) error {
	if i.err != nil {
		return i.err
	}
	i.received <- raw
	return nil
}

type fakeViews struct {
	maps   *fakeMap
	form   *fakeForm
	list   *fakeList
	alerts *fakeAlerts
	inbox  *fakeInbox

	detached atomic.Int32
}

func newFakeViews() *fakeViews {
	return &fakeViews{
		maps:   &fakeMap{},
		form:   &fakeForm{},
		list:   &fakeList{},
		alerts: &fakeAlerts{},
		inbox:  &fakeInbox{received: make(chan []byte, 8)},
	}
}

func (v *fakeViews) collaborators() Collaborators {
	return Collaborators{
		Map:    v.maps,
		Form:   v.form,
		List:   v.list,
		Alerts: v.alerts,
		Inbox:  v.inbox,
		Detach: func() { v.detached.Add(1) },
	}
}

var testNow = time.Date(2026, time.October, 17, 8, 30, 0, 0, time.UTC)

func testFactory() workout.Factory {
	n := 0
	return workout.Factory{
		Clock: clock.Fixed(testNow),
		NewID: func() string {
			n++
			return "wk-" + string(rune('a'+n-1))
		},
	}
}

func newTestController() (*Controller, *fakeViews) {
	views := newFakeViews()
	ctrl := NewController("session-1", views.collaborators(), WithFactory(testFactory()))
	return ctrl, views
}

func readyController(t *testing.T) (*Controller, *fakeViews) {
	t.Helper()
	ctrl, views := newTestController()
	ctrl.OnMapReady(geo.Point{Lat: 10.0, Lng: 20.0})
	if ctrl.State() != StateIdle {
		t.Fatalf("expected idle after map ready, got %s", ctrl.State())
	}
	return ctrl, views
}

func runningFields(distance, duration, cadence string) FormFields {
	return FormFields{Type: "running", Distance: RawValue(distance), Duration: RawValue(duration), Cadence: RawValue(cadence)}
}

func cyclingFields(distance, duration, elevation string) FormFields {
	return FormFields{Type: "cycling", Distance: RawValue(distance), Duration: RawValue(duration), Elevation: RawValue(elevation)}
}

var errLocation = errors.New("user denied geolocation")
