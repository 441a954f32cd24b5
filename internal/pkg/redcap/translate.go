package redcap

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ToExternal converts a canonical record into the external representation and
// projects it down to the fields the dictionary knows; unknown fields are
// dropped and never reach the external service.
func ToExternal(record map[string]interface{}, dict Dictionary) map[string]interface{} {
	out := make(map[string]interface{}, len(record))

	for i := range dict {
		f := &dict[i]
		value, present := record[f.Name]
		if !present {
			continue
		}

		switch f.Kind {
		case KindEnum:
			code, ok := f.CodeFor(asString(value))
			if !ok {
				out[f.Name] = ""
			} else {
				out[f.Name] = code
			}
		case KindBoolean:
			if asBool(value) {
				out[f.Name] = 1
			} else {
				out[f.Name] = 0
			}
		case KindComposite:
			if value == nil {
				out[f.Name] = nil
				break
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				out[f.Name] = ""
			} else {
				out[f.Name] = string(encoded)
			}
		default:
			// Number and Text values cross the boundary unchanged
			out[f.Name] = value
		}
	}

	return out
}

// ToCanonical converts an external record into the canonical representation.
// Fields without a dictionary entry pass through unchanged.
func ToCanonical(record map[string]interface{}, dict Dictionary) map[string]interface{} {
	out := make(map[string]interface{}, len(record))
	for name, value := range record {
		out[name] = value
	}

	for i := range dict {
		f := &dict[i]
		value, present := out[f.Name]
		if !present {
			continue
		}

		switch f.Kind {
		case KindEnum:
			label, ok := f.LabelFor(asString(value))
			if !ok {
				out[f.Name] = ""
			} else {
				out[f.Name] = label
			}
		case KindBoolean:
			n, _ := asNumber(value)
			out[f.Name] = n > 0
		case KindNumber:
			if value == nil || value == "" {
				out[f.Name] = nil
				break
			}
			if n, ok := asNumber(value); ok {
				out[f.Name] = n
			}
		case KindComposite:
			s := asString(value)
			if s == "" {
				break
			}
			var decoded interface{}
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				out[f.Name] = decoded
			}
		}
	}

	return out
}

// UnionKeys computes the union of field keys across heterogeneous records, so
// one dictionary fetch can cover a whole batch.
func UnionKeys(records []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var keys []string

	for _, record := range records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}

	return keys
}

// ToExternalBatch maps each record independently under one shared dictionary
func ToExternalBatch(records []map[string]interface{}, dict Dictionary) []map[string]interface{} {
	out := make([]map[string]interface{}, len(records))
	for i, record := range records {
		out[i] = ToExternal(record, dict)
	}
	return out
}

// ToCanonicalBatch maps each record independently under one shared dictionary
func ToCanonicalBatch(records []map[string]interface{}, dict Dictionary) []map[string]interface{} {
	out := make([]map[string]interface{}, len(records))
	for i, record := range records {
		out[i] = ToCanonical(record, dict)
	}
	return out
}

// asString renders a scalar value the way the external service would
func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		if s {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// asNumber coerces external scalar encodings to a number
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// asBool applies external truthiness: true, a positive number, or a non-empty
// numeric string
func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	case string:
		n, ok := asNumber(b)
		return ok && n > 0
	default:
		n, ok := asNumber(v)
		return ok && n > 0
	}
}
