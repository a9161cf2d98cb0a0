package session

import (
	"context"
	"errors"
	"sync"

	"backend-mapty/internal/shared/geo"
)

var ErrGeolocationUnavailable = errors.New("geolocation unavailable")

// PositionReport is a Geolocator fed by the browser. Only the first report
// counts; later ones are ignored.
type PositionReport struct {
	once  sync.Once
	done  chan struct{}
	point geo.Point
	err   error
}

func NewPositionReport() *PositionReport {
	return &PositionReport{done: make(chan struct{})}
}

// Report resolves the position. It returns false if it was already resolved.
func (p *PositionReport) Report(at geo.Point) bool {
	if !at.Valid() {
		return p.Fail("invalid coordinates")
	}
	return p.resolve(at, nil)
}

func (p *PositionReport) Fail(reason string) bool {
	err := ErrGeolocationUnavailable
	if reason != "" {
		err = errors.Join(ErrGeolocationUnavailable, errors.New(reason))
	}
	return p.resolve(geo.Point{}, err)
}

func (p *PositionReport) resolve(at geo.Point, err error) bool {
	resolved := false
	p.once.Do(func() {
		p.point, p.err = at, err
		close(p.done)
		resolved = true
	})
	return resolved
}

func (p *PositionReport) CurrentPosition(ctx context.Context) (geo.Point, error) {
	select {
	case <-p.done:
		return p.point, p.err
	case <-ctx.Done():
		return geo.Point{}, ctx.Err()
	}
}
