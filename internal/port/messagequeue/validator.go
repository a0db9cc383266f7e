package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var target any
	switch {
	case subject == SubjectQuery:
		var p QueryPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if strings.TrimSpace(p.Query) == "" {
			return fmt.Errorf("schema validation failed for %s: query is required", subject)
		}
		return nil
	case subject == SubjectQueryResult:
		target = &QueryResultPayload{}
	case strings.HasPrefix(subject, SubjectEvents+"."):
		// Observer events are flat objects carrying their type.
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if want := strings.TrimPrefix(subject, SubjectEvents+"."); ev.Type != want {
			return fmt.Errorf("schema validation failed for %s: event type %q does not match subject", subject, ev.Type)
		}
		return nil
	default:
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
