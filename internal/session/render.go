package session

import (
	"strconv"

	"backend-mapty/internal/workout"
)

// Entry is a rendered sidebar row.
type Entry struct {
	ID      string       `json:"id"`
	Kind    workout.Kind `json:"kind"`
	Title   string       `json:"title"`
	Details []Detail     `json:"details"`
}

type Detail struct {
	Icon  string `json:"icon"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

func glyph(kind workout.Kind) string {
	if kind == workout.KindRunning {
		return "🏃‍♂️"
	}
	return "🚴‍♀️"
}

func popupLabel(r workout.Record) string {
	return glyph(r.Kind()) + " " + r.Description()
}

func markerClass(r workout.Record) string {
	return string(r.Kind()) + "-popup"
}

func renderEntry(r workout.Record) Entry {
	details := []Detail{
		{Icon: glyph(r.Kind()), Value: plain(r.DistanceKm()), Unit: "km"},
		{Icon: "⏱", Value: plain(r.DurationMin()), Unit: "min"},
	}
	switch v := r.Variant().(type) {
	case workout.Running:
		details = append(details,
			Detail{Icon: "⚡️", Value: oneDecimal(v.PaceMinPerKm), Unit: "min/km"},
			Detail{Icon: "🦶🏼", Value: plain(v.CadenceSpm), Unit: "spm"},
		)
	case workout.Cycling:
		details = append(details,
			Detail{Icon: "⚡️", Value: oneDecimal(v.SpeedKmh), Unit: "km/h"},
			Detail{Icon: "⛰", Value: plain(v.ElevationGainM), Unit: "m"},
		)
	}
	return Entry{
		ID:      r.ID(),
		Kind:    r.Kind(),
		Title:   r.Description(),
		Details: details,
	}
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func oneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
