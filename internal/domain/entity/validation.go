package entity

import (
	"fmt"
	"strings"
)

// ValidateRequired checks that every required field is present and non-blank.
func ValidateRequired(e Entity, required []string) error {
	var missing []string
	for _, field := range required {
		v, ok := e.Fields[field]
		if !ok || v == nil {
			missing = append(missing, field)
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
