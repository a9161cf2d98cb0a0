package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"backend-mapty/internal/session"
	"backend-mapty/internal/shared/geo"
	"backend-mapty/internal/workout"
)

const panDurationSec = 1.0

var (
	ErrUnknownEvent = errors.New("unknown client event")
	ErrBadEvent     = errors.New("malformed client event")
)

// Broadcaster sends a payload to every client of a session.
type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
	Disconnect(sessionID string) int
}

// Command is a rendering instruction pushed to the browser.
type Command struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// event is a UI event reported by the browser.
type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Surface is the browser side of one session. Controller calls become
// commands on the session's websocket; client events come back through
// Deliver and reach the registered handlers.
type Surface struct {
	sessionID string
	out       Broadcaster
	position  *session.PositionReport

	mu       sync.Mutex
	center   *geo.Point
	onClick  func(geo.Point)
	onSubmit func(session.FormFields)
	onCancel func()
	onType   func(workout.Kind)
	onEntry  func(string)
}

func NewSurface(sessionID string, out Broadcaster, position *session.PositionReport) *Surface {
	return &Surface{sessionID: sessionID, out: out, position: position}
}

// Collaborators exposes the surface as every view of a session.
func (s *Surface) Collaborators() session.Collaborators {
	return session.Collaborators{Map: s, Form: s, List: s, Alerts: s, Inbox: s, Detach: s.Detach}
}

// Detach drops the handlers and disconnects the session's websocket clients.
func (s *Surface) Detach() {
	s.mu.Lock()
	s.onClick, s.onSubmit, s.onCancel, s.onType, s.onEntry = nil, nil, nil, nil, nil
	s.mu.Unlock()

	if n := s.out.Disconnect(s.sessionID); n > 0 {
		log.Printf("session %s: disconnected %d websocket clients", s.sessionID, n)
	}
}

func (s *Surface) send(kind string, payload any) {
	raw, err := json.Marshal(Command{Type: kind, Payload: payload})
	if err != nil {
		log.Printf("session %s: encode %s: %v", s.sessionID, kind, err)
		return
	}
	s.out.Broadcast(s.sessionID, raw)
}

func (s *Surface) Initialize(center geo.Point, zoom int) {
	s.mu.Lock()
	s.center = &center
	s.mu.Unlock()
	s.send("map.initialize", map[string]any{"center": center, "zoom": zoom})
}

func (s *Surface) OnClick(handler func(at geo.Point)) {
	s.mu.Lock()
	s.onClick = handler
	s.mu.Unlock()
}

func (s *Surface) PlaceMarker(at geo.Point, popup string, styleClass string) {
	s.send("map.marker", map[string]any{"at": at, "popup": popup, "class": styleClass})
}

func (s *Surface) PanTo(at geo.Point, animated bool) {
	s.mu.Lock()
	var distance float64
	if s.center != nil {
		distance = geo.DistanceKm(*s.center, at)
	}
	s.center = &at
	s.mu.Unlock()

	payload := map[string]any{"to": at, "animated": animated, "distance_km": distance}
	if animated {
		payload["duration_sec"] = panDurationSec
	}
	s.send("map.pan", payload)
}

func (s *Surface) Show() { s.send("form.show", nil) }

func (s *Surface) Hide() { s.send("form.hide", nil) }

func (s *Surface) FocusFirstField() {
	s.send("form.focus", map[string]string{"field": "distance"})
}

func (s *Surface) ShowVariantRow(kind workout.Kind) {
	s.send("form.variant", map[string]workout.Kind{"kind": kind})
}

func (s *Surface) ShowValidation(message string) {
	s.send("form.error", map[string]string{"message": message})
}

func (s *Surface) OnSubmit(handler func(fields session.FormFields)) {
	s.mu.Lock()
	s.onSubmit = handler
	s.mu.Unlock()
}

func (s *Surface) OnCancel(handler func()) {
	s.mu.Lock()
	s.onCancel = handler
	s.mu.Unlock()
}

func (s *Surface) OnTypeChange(handler func(kind workout.Kind)) {
	s.mu.Lock()
	s.onType = handler
	s.mu.Unlock()
}

func (s *Surface) AppendEntry(entry session.Entry) {
	s.send("list.append", entry)
}

func (s *Surface) OnEntryClick(handler func(id string)) {
	s.mu.Lock()
	s.onEntry = handler
	s.mu.Unlock()
}

func (s *Surface) Alert(message string) {
	s.send("alert", map[string]string{"message": message})
}

// Deliver decodes one client event. Events whose handler is not registered
// yet, such as a map click before the map is ready, are dropped.
func (s *Surface) Deliver(raw []byte) error {
	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}

	switch ev.Type {
	case "map.click":
		var at geo.Point
		if err := decodePayload(ev, &at); err != nil {
			return err
		}
		if !at.Valid() {
			return fmt.Errorf("%w: invalid coordinates", ErrBadEvent)
		}
		if h := s.handlers().onClick; h != nil {
			h(at)
		}
	case "form.submit":
		var fields session.FormFields
		if err := decodePayload(ev, &fields); err != nil {
			return err
		}
		if h := s.handlers().onSubmit; h != nil {
			h(fields)
		}
	case "form.cancel":
		if h := s.handlers().onCancel; h != nil {
			h()
		}
	case "form.type":
		var body struct {
			Type string `json:"type"`
		}
		if err := decodePayload(ev, &body); err != nil {
			return err
		}
		kind, ok := workout.ParseKind(body.Type)
		if !ok {
			return fmt.Errorf("%w: workout type %q", ErrBadEvent, body.Type)
		}
		if h := s.handlers().onType; h != nil {
			h(kind)
		}
	case "list.click":
		var body struct {
			ID string `json:"id"`
		}
		if err := decodePayload(ev, &body); err != nil {
			return err
		}
		if h := s.handlers().onEntry; h != nil {
			h(body.ID)
		}
	case "geolocation":
		var body struct {
			Lat   *float64 `json:"lat"`
			Lng   *float64 `json:"lng"`
			Error string   `json:"error"`
		}
		if err := decodePayload(ev, &body); err != nil {
			return err
		}
		if s.position == nil {
			return nil
		}
		switch {
		case body.Error != "":
			s.position.Fail(body.Error)
		case body.Lat == nil || body.Lng == nil:
			s.position.Fail("position missing")
		default:
			s.position.Report(geo.Point{Lat: *body.Lat, Lng: *body.Lng})
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}

type handlerSet struct {
	onClick  func(geo.Point)
	onSubmit func(session.FormFields)
	onCancel func()
	onType   func(workout.Kind)
	onEntry  func(string)
}

func (s *Surface) handlers() handlerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return handlerSet{
		onClick:  s.onClick,
		onSubmit: s.onSubmit,
		onCancel: s.onCancel,
		onType:   s.onType,
		onEntry:  s.onEntry,
	}
}

func decodePayload(ev event, out any) error {
	if len(ev.Payload) == 0 {
		return fmt.Errorf("%w: %s without payload", ErrBadEvent, ev.Type)
	}
	if err := json.Unmarshal(ev.Payload, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadEvent, ev.Type, err)
	}
	return nil
}
