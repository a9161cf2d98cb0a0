package session

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"backend-mapty/internal/workout"
)

// RawValue is a form input as typed by the user. It decodes from a JSON
// string, number or null.
type RawValue string

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = RawValue(n.String())
	return nil
}

// Float parses the value. Empty, unparsable and non-finite input yields NaN
// so the workout constructors report it as not a number.
func (v RawValue) Float() float64 {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// FormFields is one submission of the workout form.
type FormFields struct {
	Type      string   `json:"type"`
	Distance  RawValue `json:"distance"`
	Duration  RawValue `json:"duration"`
	Cadence   RawValue `json:"cadence,omitempty"`
	Elevation RawValue `json:"elevation,omitempty"`
}

func (f FormFields) kind() (workout.Kind, error) {
	kind, ok := workout.ParseKind(strings.ToLower(strings.TrimSpace(f.Type)))
	if !ok {
		return "", &workout.ValidationError{Problems: []workout.FieldError{
			{Field: "type", Reason: "must be running or cycling"},
		}}
	}
	return kind, nil
}
