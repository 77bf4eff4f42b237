package finbrick

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeScenario reads a scenario definition from a JSON document and
// validates it structurally: every kind must parse to a known family and the
// brick/MacroBrick graph must build a valid registry. The returned scenario
// is ready to Run.
func DecodeScenario(r io.Reader) (*Scenario, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("cannot decode scenario: %w", err)
	}
	for _, b := range s.Bricks {
		if b.ID == "" {
			return nil, configErrorf(s.ID, "brick without an id")
		}
		family, err := FamilyOfKind(b.Kind)
		if err != nil {
			return nil, fmt.Errorf("brick %q: %w", b.ID, err)
		}
		b.Family = family
	}
	for _, m := range s.Macros {
		if m.ID == "" {
			return nil, configErrorf(s.ID, "MacroBrick without an id")
		}
	}
	if _, err := s.Registry(); err != nil {
		return nil, err
	}
	return &s, nil
}

// EncodeScenario writes the scenario definition as one JSON document, the
// inverse of DecodeScenario.
func EncodeScenario(w io.Writer, s *Scenario) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("cannot encode scenario: %w", err)
	}
	return nil
}
