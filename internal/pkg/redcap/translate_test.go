package redcap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDictionary() Dictionary {
	return Dictionary{
		{Name: "record_id", Kind: KindText},
		{Name: "language", Kind: KindEnum, Options: []Option{
			{Code: "en", Label: "English"},
			{Code: "fr", Label: "French"},
		}},
		{Name: "consented", Kind: KindBoolean},
		{Name: "age", Kind: KindNumber},
		{Name: "flags", Kind: KindComposite},
	}
}

func TestToExternal(t *testing.T) {
	dict := testDictionary()

	record := map[string]interface{}{
		"record_id": "17",
		"language":  "French",
		"consented": true,
		"age":       34.0,
		"flags":     []interface{}{"followup", "review"},
		"unknown":   "dropped",
	}

	out := ToExternal(record, dict)

	assert.Equal(t, "17", out["record_id"])
	assert.Equal(t, "fr", out["language"])
	assert.Equal(t, 1, out["consented"])
	assert.Equal(t, 34.0, out["age"])
	assert.Equal(t, `["followup","review"]`, out["flags"])
	_, present := out["unknown"]
	assert.False(t, present, "fields outside the dictionary never reach the external service")
}

func TestToExternalUnknownLabel(t *testing.T) {
	dict := testDictionary()
	out := ToExternal(map[string]interface{}{"language": "German"}, dict)
	assert.Equal(t, "", out["language"])
}

func TestToExternalFalseAndNil(t *testing.T) {
	dict := testDictionary()

	out := ToExternal(map[string]interface{}{
		"consented": false,
		"flags":     nil,
	}, dict)

	assert.Equal(t, 0, out["consented"])
	assert.Nil(t, out["flags"])
}

func TestToCanonical(t *testing.T) {
	dict := testDictionary()

	record := map[string]interface{}{
		"record_id": "17",
		"language":  "fr",
		"consented": "1",
		"age":       "34",
		"flags":     `["followup","review"]`,
		"extra":     "kept",
	}

	out := ToCanonical(record, dict)

	assert.Equal(t, "17", out["record_id"])
	assert.Equal(t, "French", out["language"])
	assert.Equal(t, true, out["consented"])
	assert.Equal(t, 34.0, out["age"])
	assert.Equal(t, []interface{}{"followup", "review"}, out["flags"])
	assert.Equal(t, "kept", out["extra"], "fields outside the dictionary pass through")
}

func TestToCanonicalEdgeValues(t *testing.T) {
	dict := testDictionary()

	out := ToCanonical(map[string]interface{}{
		"language":  "de",
		"consented": "0",
		"age":       "",
	}, dict)

	assert.Equal(t, "", out["language"], "unknown codes map to empty")
	assert.Equal(t, false, out["consented"])
	assert.Nil(t, out["age"], "empty numbers become nil")
}

func TestRoundTrip(t *testing.T) {
	dict := testDictionary()

	canonical := map[string]interface{}{
		"record_id": "3",
		"language":  "English",
		"consented": true,
		"age":       21.0,
		"flags":     map[string]interface{}{"priority": "high"},
	}

	back := ToCanonical(ToExternal(canonical, dict), dict)
	assert.Equal(t, canonical, back)
}

func TestUnionKeys(t *testing.T) {
	records := []map[string]interface{}{
		{"record_id": "1", "language": "en"},
		{"record_id": "2", "age": 40},
	}

	keys := UnionKeys(records)
	assert.ElementsMatch(t, []string{"record_id", "language", "age"}, keys)
}

func TestBatchTranslation(t *testing.T) {
	dict := testDictionary()

	external := ToExternalBatch([]map[string]interface{}{
		{"language": "English"},
		{"language": "French"},
	}, dict)
	require.Len(t, external, 2)
	assert.Equal(t, "en", external[0]["language"])
	assert.Equal(t, "fr", external[1]["language"])

	canonical := ToCanonicalBatch(external, dict)
	require.Len(t, canonical, 2)
	assert.Equal(t, "English", canonical[0]["language"])
	assert.Equal(t, "French", canonical[1]["language"])
}
