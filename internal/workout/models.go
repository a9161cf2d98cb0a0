package workout

import (
	"encoding/json"
	"time"

	"backend-mapty/internal/shared/geo"
)

type Kind string

const (
	KindRunning Kind = "running"
	KindCycling Kind = "cycling"
)

// ParseKind returns the kind named by s, or false for anything else.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindRunning, KindCycling:
		return Kind(s), true
	}
	return "", false
}

// Variant carries the metrics specific to one kind of workout.
// Running and Cycling are the only implementations.
type Variant interface {
	Kind() Kind
	isVariant()
}

type Running struct {
	CadenceSpm   float64
	PaceMinPerKm float64
}

func (Running) Kind() Kind { return KindRunning }
func (Running) isVariant() {}

type Cycling struct {
	ElevationGainM float64
	SpeedKmh       float64
}

func (Cycling) Kind() Kind { return KindCycling }
func (Cycling) isVariant() {}

// Record is one logged workout. Fields are fixed at construction except the
// interaction counter, which only a Store can advance.
type Record struct {
	id           string
	createdAt    time.Time
	coords       geo.Point
	distanceKm   float64
	durationMin  float64
	description  string
	interactions int
	variant      Variant
}

func (r Record) ID() string            { return r.id }
func (r Record) CreatedAt() time.Time  { return r.createdAt }
func (r Record) Coords() geo.Point     { return r.coords }
func (r Record) DistanceKm() float64   { return r.distanceKm }
func (r Record) DurationMin() float64  { return r.durationMin }
func (r Record) Description() string   { return r.description }
func (r Record) InteractionCount() int { return r.interactions }
func (r Record) Variant() Variant      { return r.variant }
func (r Record) Kind() Kind            { return r.variant.Kind() }

type recordJSON struct {
	ID             string    `json:"id"`
	Type           Kind      `json:"type"`
	CreatedAt      time.Time `json:"created_at"`
	Coords         geo.Point `json:"coords"`
	DistanceKm     float64   `json:"distance_km"`
	DurationMin    float64   `json:"duration_min"`
	Description    string    `json:"description"`
	Clicks         int       `json:"clicks"`
	CadenceSpm     *float64  `json:"cadence_spm,omitempty"`
	PaceMinPerKm   *float64  `json:"pace_min_per_km,omitempty"`
	ElevationGainM *float64  `json:"elevation_gain_m,omitempty"`
	SpeedKmh       *float64  `json:"speed_kmh,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:          r.id,
		CreatedAt:   r.createdAt,
		Coords:      r.coords,
		DistanceKm:  r.distanceKm,
		DurationMin: r.durationMin,
		Description: r.description,
		Clicks:      r.interactions,
	}
	switch v := r.variant.(type) {
	case Running:
		out.Type = KindRunning
		out.CadenceSpm = &v.CadenceSpm
		out.PaceMinPerKm = &v.PaceMinPerKm
	case Cycling:
		out.Type = KindCycling
		out.ElevationGainM = &v.ElevationGainM
		out.SpeedKmh = &v.SpeedKmh
	}
	return json.Marshal(out)
}
