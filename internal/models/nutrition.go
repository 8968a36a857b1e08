// internal/models/nutrition.go
package models

import (
	"encoding/json"
	"fmt"
)

type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// NutritionRecord is the estimate returned by the vision model. Only FoodName and
// Calories are guaranteed. Optional members are nil when the model left them out.
// Keys outside the known shape, and known keys the model sent with an unexpected
// type, are kept untouched in Extra so the record marshals back to the object the
// model produced.
type NutritionRecord struct {
	FoodName   string         `json:"foodName"`
	Calories   float64        `json:"calories"`
	Macros     *Macros        `json:"macros,omitempty"`
	Sugar      *float64       `json:"sugar,omitempty"`
	Vitamins   []string       `json:"vitamins,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Extra      map[string]any `json:"-"`
}

var knownFields = map[string]bool{
	"foodName":   true,
	"calories":   true,
	"macros":     true,
	"sugar":      true,
	"vitamins":   true,
	"confidence": true,
}

// RecordFromMap builds a record from a decoded JSON object. The caller is expected
// to have checked foodName and calories already. Optional members that don't have
// the expected shape stay in Extra as decoded and are reported in the returned
// slice.
func RecordFromMap(obj map[string]any) (*NutritionRecord, []string) {
	var untyped []string
	record := &NutritionRecord{}

	record.FoodName, _ = obj["foodName"].(string)
	record.Calories, _ = obj["calories"].(float64)

	keepRaw := func(key string, value any) {
		if record.Extra == nil {
			record.Extra = make(map[string]any)
		}
		record.Extra[key] = value
	}

	if raw, ok := obj["macros"]; ok {
		if macros, bad := macrosFromValue(raw); bad == nil {
			record.Macros = macros
		} else {
			keepRaw("macros", raw)
			untyped = append(untyped, bad...)
		}
	}

	for _, f := range []struct {
		name   string
		target **float64
	}{
		{"sugar", &record.Sugar},
		{"confidence", &record.Confidence},
	} {
		raw, ok := obj[f.name]
		if !ok {
			continue
		}
		if n, ok := raw.(float64); ok {
			*f.target = &n
		} else {
			keepRaw(f.name, raw)
			untyped = append(untyped, f.name)
		}
	}

	if raw, ok := obj["vitamins"]; ok {
		if vitamins, bad := vitaminsFromValue(raw); bad == nil {
			record.Vitamins = vitamins
		} else {
			keepRaw("vitamins", raw)
			untyped = append(untyped, bad...)
		}
	}

	for key, value := range obj {
		if !knownFields[key] {
			keepRaw(key, value)
		}
	}

	return record, untyped
}

// macrosFromValue accepts only an object with exactly the three numeric members.
func macrosFromValue(raw any) (*Macros, []string) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, []string{"macros"}
	}

	macros := &Macros{}
	var bad []string
	for _, m := range []struct {
		name   string
		target *float64
	}{
		{"protein", &macros.Protein},
		{"carbs", &macros.Carbs},
		{"fat", &macros.Fat},
	} {
		n, ok := obj[m.name].(float64)
		if !ok {
			bad = append(bad, "macros."+m.name)
			continue
		}
		*m.target = n
	}
	if bad == nil && len(obj) != 3 {
		bad = []string{"macros"}
	}
	if bad != nil {
		return nil, bad
	}
	return macros, nil
}

func vitaminsFromValue(raw any) ([]string, []string) {
	list, ok := raw.([]any)
	if !ok {
		return nil, []string{"vitamins"}
	}

	vitamins := make([]string, 0, len(list))
	var bad []string
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			bad = append(bad, fmt.Sprintf("vitamins[%d]", i))
			continue
		}
		vitamins = append(vitamins, s)
	}
	if bad != nil {
		return nil, bad
	}
	return vitamins, nil
}

func (r NutritionRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+len(knownFields))
	for key, value := range r.Extra {
		out[key] = value
	}
	out["foodName"] = r.FoodName
	out["calories"] = r.Calories
	if r.Macros != nil {
		out["macros"] = r.Macros
	}
	if r.Sugar != nil {
		out["sugar"] = *r.Sugar
	}
	if r.Vitamins != nil {
		out["vitamins"] = r.Vitamins
	}
	if r.Confidence != nil {
		out["confidence"] = *r.Confidence
	}
	return json.Marshal(out)
}

func (r *NutritionRecord) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	record, _ := RecordFromMap(obj)
	*r = *record
	return nil
}

// SugarOrZero and ConfidenceOrZero read optional members for display.
func (r *NutritionRecord) SugarOrZero() float64 {
	if r.Sugar == nil {
		return 0
	}
	return *r.Sugar
}

func (r *NutritionRecord) ConfidenceOrZero() float64 {
	if r.Confidence == nil {
		return 0
	}
	return *r.Confidence
}

// Placeholder is the clearly labelled sample estimate shown when a real analysis
// is unavailable.
func Placeholder() *NutritionRecord {
	sugar, confidence := 12.0, 92.0
	return &NutritionRecord{
		FoodName: "Caesar Salad (sample)",
		Calories: 680,
		Macros: &Macros{
			Protein: 28,
			Carbs:   35,
			Fat:     45,
		},
		Sugar:      &sugar,
		Vitamins:   []string{"A", "C", "K", "Folate"},
		Confidence: &confidence,
		Extra:      map[string]any{"placeholder": true},
	}
}
