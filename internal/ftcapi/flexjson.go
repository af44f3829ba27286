package ftcapi

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// fieldMaps caches lowercased JSON tag -> field index per struct type.
var fieldMaps sync.Map // reflect.Type -> map[string]int

func fieldMapFor(t reflect.Type) map[string]int {
	if m, ok := fieldMaps.Load(t); ok {
		return m.(map[string]int)
	}
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		m[strings.ToLower(name)] = i
	}
	fieldMaps.Store(t, m)
	return m
}

// allianceScoreAliases folds season-specific score field names onto the
// canonical AllianceScore tags (already lowercased on both sides; plain
// case differences like endGamePoints/endgamePoints need no entry).
var allianceScoreAliases = map[string]string{
	"teleoppoints":        "dcpoints",
	"prepenaltytotal":     "prefoultotal",
	"foulpointscommitted": "penaltypointscommitted",
}

// flexUnmarshal decodes field by field: keys are matched case
// insensitively, routed through the alias table, and string-encoded
// scalars are coerced to the field's native type. Scoring systems for
// some seasons quote every numeric value.
func flexUnmarshal(data []byte, out any, aliases map[string]string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	v := reflect.ValueOf(out).Elem()
	fieldMap := fieldMapFor(v.Type())

	for key, rawVal := range raw {
		name := strings.ToLower(key)
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		idx, ok := fieldMap[name]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		// Native type first
		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		// Quoted scalar - coerce to the field's type
		if len(rawVal) > 1 && rawVal[0] == '"' {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil || s == "" {
				continue
			}
			coerceString(fv, s)
		}
	}

	return nil
}

func coerceString(fv reflect.Value, s string) {
	switch fv.Kind() {
	case reflect.Int, reflect.Int64:
		// ParseFloat handles "28.5" -> truncate to int
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetInt(int64(n))
		}
	case reflect.Float64:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetFloat(n)
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			fv.SetBool(b)
		}
	case reflect.String:
		fv.SetString(s)
	}
}

// UnmarshalJSON always takes the flexible path: an alias-bearing payload
// decodes cleanly under the standard decoder while leaving the canonical
// fields zero, so a fast path would mask exactly the payloads this
// exists for.
func (a *AllianceScore) UnmarshalJSON(data []byte) error {
	return flexUnmarshal(data, a, allianceScoreAliases)
}

// UnmarshalJSON tries the standard decoder first and falls back to the
// flexible path when a payload string-encodes its numerics.
func (m *MatchResult) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type plain MatchResult
	if err := json.Unmarshal(data, (*plain)(m)); err == nil {
		return nil
	}
	return flexUnmarshal(data, m, nil)
}
