package workout

import (
	"math"
	"strconv"
	"time"

	"backend-mapty/internal/shared/clock"
	"backend-mapty/internal/shared/geo"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Factory builds records with an injectable clock and id source.
type Factory struct {
	Clock clock.Clock
	NewID func() string
}

func NewFactory() Factory {
	return Factory{Clock: clock.SystemClock{}, NewID: uuid.NewString}
}

var defaultFactory = NewFactory()

func NewRunning(coords geo.Point, distanceKm, durationMin, cadenceSpm float64) (Record, error) {
	return defaultFactory.NewRunning(coords, distanceKm, durationMin, cadenceSpm)
}

func NewCycling(coords geo.Point, distanceKm, durationMin, elevationGainM float64) (Record, error) {
	return defaultFactory.NewCycling(coords, distanceKm, durationMin, elevationGainM)
}

// NewRunning validates the inputs and derives the pace in min/km.
func (f Factory) NewRunning(coords geo.Point, distanceKm, durationMin, cadenceSpm float64) (Record, error) {
	verr := validateCommon(coords, distanceKm, durationMin)
	requirePositive(verr, "cadence", cadenceSpm)
	if err := verr.errOrNil(); err != nil {
		return Record{}, err
	}
	return f.build(coords, distanceKm, durationMin, Running{
		CadenceSpm:   cadenceSpm,
		PaceMinPerKm: durationMin / distanceKm,
	}), nil
}

// NewCycling validates the inputs and derives the speed in km/h. Elevation
// gain only has to be finite; instruments report zero or small negative values.
func (f Factory) NewCycling(coords geo.Point, distanceKm, durationMin, elevationGainM float64) (Record, error) {
	verr := validateCommon(coords, distanceKm, durationMin)
	if !isFinite(elevationGainM) {
		verr.add("elevation", "must be a number")
	}
	if err := verr.errOrNil(); err != nil {
		return Record{}, err
	}
	return f.build(coords, distanceKm, durationMin, Cycling{
		ElevationGainM: elevationGainM,
		SpeedKmh:       distanceKm / (durationMin / 60),
	}), nil
}

func (f Factory) build(coords geo.Point, distanceKm, durationMin float64, v Variant) Record {
	createdAt := f.Clock.Now()
	return Record{
		id:          f.NewID(),
		createdAt:   createdAt,
		coords:      coords,
		distanceKm:  distanceKm,
		durationMin: durationMin,
		description: describe(v.Kind(), createdAt.Month(), createdAt.Day()),
		variant:     v,
	}
}

// time.Month.String never fails, even for out-of-range months.
func describe(kind Kind, month time.Month, day int) string {
	label := cases.Title(language.English).String(string(kind))
	return label + " on " + month.String() + " " + strconv.Itoa(day)
}

func validateCommon(coords geo.Point, distanceKm, durationMin float64) *ValidationError {
	verr := &ValidationError{}
	if !coords.Valid() {
		verr.add("coordinates", "must be a valid latitude/longitude")
	}
	requirePositive(verr, "distance", distanceKm)
	requirePositive(verr, "duration", durationMin)
	return verr
}

func requirePositive(verr *ValidationError, field string, v float64) {
	switch {
	case !isFinite(v):
		verr.add(field, "must be a number")
	case v <= 0:
		verr.add(field, "must be positive")
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
