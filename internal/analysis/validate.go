// internal/analysis/validate.go
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"

	"mcp-meal-scan/internal/models"
)

var ErrInvalidData = errors.New("invalid data returned")

// parseObject decodes the extracted span. The error keeps the decoder's message.
func parseObject(span string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// validateRequired checks the two fields every consumer relies on.
func validateRequired(obj map[string]any) error {
	name, ok := obj["foodName"].(string)
	if !ok || name == "" {
		return fmt.Errorf("%w: foodName must be a non-empty string", ErrInvalidData)
	}
	if _, ok := obj["calories"].(float64); !ok {
		return fmt.Errorf("%w: calories must be a number", ErrInvalidData)
	}
	return nil
}

type rangeCheck struct {
	name  string
	value float64
}

// validateRanges rejects estimates that cannot be physical quantities. Absent
// optional members are not checked.
func validateRanges(record *models.NutritionRecord) error {
	checks := []rangeCheck{{"calories", record.Calories}}
	if m := record.Macros; m != nil {
		checks = append(checks,
			rangeCheck{"macros.protein", m.Protein},
			rangeCheck{"macros.carbs", m.Carbs},
			rangeCheck{"macros.fat", m.Fat},
		)
	}
	if record.Sugar != nil {
		checks = append(checks, rangeCheck{"sugar", *record.Sugar})
	}

	for _, f := range checks {
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidData, f.name, f.value)
		}
	}
	if c := record.Confidence; c != nil && (*c < 0 || *c > 100) {
		return fmt.Errorf("%w: confidence must be within 0-100, got %v", ErrInvalidData, *c)
	}
	return nil
}
