package redcap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDictionary(t *testing.T) {
	raw := []byte(`[
		{"field_name": "record_id", "field_type": "text", "select_choices_or_calculations": "", "text_validation_type_or_show_slider_number": ""},
		{"field_name": "language", "field_type": "dropdown", "select_choices_or_calculations": "en, English | fr, French", "text_validation_type_or_show_slider_number": ""},
		{"field_name": "consented", "field_type": "truefalse", "select_choices_or_calculations": "", "text_validation_type_or_show_slider_number": ""},
		{"field_name": "age", "field_type": "text", "select_choices_or_calculations": "", "text_validation_type_or_show_slider_number": "number"},
		{"field_name": "flags", "field_type": "text", "select_choices_or_calculations": "", "text_validation_type_or_show_slider_number": ""},
		{"field_name": "q001", "field_type": "radio", "select_choices_or_calculations": "1, Never | 2, Sometimes | 3, Always", "text_validation_type_or_show_slider_number": ""}
	]`)

	dict, err := ParseDictionary(raw)
	require.NoError(t, err)
	require.Len(t, dict, 6)

	recordID, ok := dict.Field("record_id")
	require.True(t, ok)
	assert.Equal(t, KindText, recordID.Kind)

	language, ok := dict.Field("language")
	require.True(t, ok)
	assert.Equal(t, KindEnum, language.Kind)
	require.Len(t, language.Options, 2)
	assert.Equal(t, Option{Code: "en", Label: "English"}, language.Options[0])

	consented, ok := dict.Field("consented")
	require.True(t, ok)
	assert.Equal(t, KindBoolean, consented.Kind)

	age, ok := dict.Field("age")
	require.True(t, ok)
	assert.Equal(t, KindNumber, age.Kind)

	flags, ok := dict.Field("flags")
	require.True(t, ok)
	assert.Equal(t, KindComposite, flags.Kind)

	// Question fields keep their option codes raw even though they carry a
	// choice list
	question, ok := dict.Field("q001")
	require.True(t, ok)
	assert.Equal(t, KindText, question.Kind)
	assert.Empty(t, question.Options)
}

func TestParseDictionaryMalformed(t *testing.T) {
	_, err := ParseDictionary([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestFieldNames(t *testing.T) {
	dict := Dictionary{
		{Name: "record_id"},
		{Name: "language"},
	}
	assert.Equal(t, []string{"record_id", "language"}, dict.FieldNames())
}

func TestOptionLookup(t *testing.T) {
	f := FieldDescriptor{
		Name: "language",
		Kind: KindEnum,
		Options: []Option{
			{Code: "en", Label: "English"},
			{Code: "fr", Label: "French"},
		},
	}

	label, ok := f.LabelFor("fr")
	require.True(t, ok)
	assert.Equal(t, "French", label)

	code, ok := f.CodeFor("English")
	require.True(t, ok)
	assert.Equal(t, "en", code)

	_, ok = f.LabelFor("de")
	assert.False(t, ok)
	_, ok = f.CodeFor("German")
	assert.False(t, ok)
}

func TestParseOptionsSkipsMalformedEntries(t *testing.T) {
	options := parseOptions("1, One | garbage | 2, Two, with comma")
	require.Len(t, options, 2)
	assert.Equal(t, Option{Code: "1", Label: "One"}, options[0])
	// Only the first comma separates code from label
	assert.Equal(t, Option{Code: "2", Label: "Two, with comma"}, options[1])
}
