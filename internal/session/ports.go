package session

import (
	"context"

	"backend-mapty/internal/shared/geo"
	"backend-mapty/internal/workout"
)

// MapSurface is the interactive map shown to the user. Calls are commands;
// none of them wait for the map to finish.
type MapSurface interface {
	Initialize(center geo.Point, zoom int)
	OnClick(handler func(at geo.Point))
	PlaceMarker(at geo.Point, popup string, styleClass string)
	PanTo(at geo.Point, animated bool)
}

// FormView is the workout input form.
type FormView interface {
	Show()
	Hide()
	FocusFirstField()
	ShowVariantRow(kind workout.Kind)
	ShowValidation(message string)
	OnSubmit(handler func(fields FormFields))
	OnCancel(handler func())
	OnTypeChange(handler func(kind workout.Kind))
}

// ListView is the sidebar list of logged workouts.
type ListView interface {
	AppendEntry(entry Entry)
	OnEntryClick(handler func(id string))
}

type Notifier interface {
	Alert(message string)
}

// Geolocator resolves the device position once.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (geo.Point, error)
}

// Inbox accepts raw client events for a session.
type Inbox interface {
	Deliver(raw []byte) error
}

// Collaborators groups the views a controller drives. Inbox and Detach are
// optional; Detach runs once when the session closes.
type Collaborators struct {
	Map    MapSurface
	Form   FormView
	List   ListView
	Alerts Notifier
	Inbox  Inbox
	Detach func()
}
