package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError rejects an imported document.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid progress document: " + e.Reason
	}
	return fmt.Sprintf("invalid progress document: %s %s", e.Field, e.Reason)
}

// Export returns the current record as indented JSON together with a
// suggested file name.
func (s *Store) Export(ctx context.Context) ([]byte, string, error) {
	rec, err := s.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode progress: %w", err)
	}
	name := fmt.Sprintf("asl_progress_%s.json", s.now().Format(dateLayout))
	return data, name, nil
}

// Import validates data and replaces the stored record with it. Invalid
// documents are rejected with a *ValidationError and nothing is written.
func (s *Store) Import(ctx context.Context, data []byte) error {
	if err := Validate(data); err != nil {
		return err
	}
	rec, err := decode(data)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return s.write(ctx, rec)
}

// Validate checks the shape of a progress document: points and level must be
// numbers, achievements and lettersCompleted must be arrays.
func Validate(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return &ValidationError{Reason: "not a JSON object"}
	}
	if fields == nil {
		return &ValidationError{Reason: "not a JSON object"}
	}
	for _, name := range []string{"points", "level"} {
		raw, ok := fields[name]
		if !ok {
			return &ValidationError{Field: name, Reason: "is missing"}
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil || isNull(raw) {
			return &ValidationError{Field: name, Reason: "must be a number"}
		}
	}
	for _, name := range []string{"achievements", "lettersCompleted"} {
		raw, ok := fields[name]
		if !ok {
			return &ValidationError{Field: name, Reason: "is missing"}
		}
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || list == nil {
			return &ValidationError{Field: name, Reason: "must be an array"}
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
