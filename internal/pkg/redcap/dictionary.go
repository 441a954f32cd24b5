package redcap

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
)

// Option delimiters used by REDCap's select_choices_or_calculations column,
// e.g. "1, Strongly agree | 2, Agree".
const (
	optionDelimiter          = "|"
	optionComponentDelimiter = ","
)

// questionFieldRe matches survey question fields (q000..q999). Their option
// codes are the canonical representation and are never translated to labels.
var questionFieldRe = regexp.MustCompile(`^q\d{3}$`)

// compositeFields are stored in REDCap as JSON-encoded text
var compositeFields = map[string]bool{
	"skipped_question_indices": true,
	"survey_preferences":       true,
	"flags":                    true,
}

// FieldKind classifies how a dictionary field translates between the canonical
// and external representations.
type FieldKind int

const (
	KindText FieldKind = iota
	KindEnum
	KindBoolean
	KindNumber
	KindComposite
)

// Option is one enumerated choice of an Enum field
type Option struct {
	Code  string
	Label string
}

// FieldDescriptor is the typed form of one data-dictionary entry. It is parsed
// once per dictionary fetch; translation never re-inspects the raw payload.
type FieldDescriptor struct {
	Name    string
	Kind    FieldKind
	Options []Option
}

// LabelFor returns the canonical label for an external option code
func (f *FieldDescriptor) LabelFor(code string) (string, bool) {
	for _, opt := range f.Options {
		if opt.Code == code {
			return opt.Label, true
		}
	}
	return "", false
}

// CodeFor returns the external option code for a canonical label
func (f *FieldDescriptor) CodeFor(label string) (string, bool) {
	for _, opt := range f.Options {
		if opt.Label == label {
			return opt.Code, true
		}
	}
	return "", false
}

// Dictionary is the typed data dictionary for a set of fields
type Dictionary []FieldDescriptor

// Field looks up a descriptor by field name
func (d Dictionary) Field(name string) (*FieldDescriptor, bool) {
	for i := range d {
		if d[i].Name == name {
			return &d[i], true
		}
	}
	return nil, false
}

// FieldNames returns the names of every field in the dictionary
func (d Dictionary) FieldNames() []string {
	names := make([]string, len(d))
	for i := range d {
		names[i] = d[i].Name
	}
	return names
}

// rawField is the wire shape of a metadata entry
type rawField struct {
	FieldName      string `json:"field_name"`
	FieldType      string `json:"field_type"`
	SelectChoices  string `json:"select_choices_or_calculations"`
	TextValidation string `json:"text_validation_type_or_show_slider_number"`
}

// ParseDictionary parses a raw metadata response into the typed dictionary
func ParseDictionary(raw []byte) (Dictionary, error) {
	var entries []rawField
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, apperrors.NewUpstreamError("malformed data dictionary response", err)
	}

	dict := make(Dictionary, 0, len(entries))
	for _, entry := range entries {
		dict = append(dict, describeField(entry))
	}

	return dict, nil
}

// describeField resolves the single kind a field translates under. Composite
// wins over everything; option lists on question fields stay raw (Text).
func describeField(entry rawField) FieldDescriptor {
	f := FieldDescriptor{Name: entry.FieldName, Kind: KindText}

	switch {
	case compositeFields[entry.FieldName]:
		f.Kind = KindComposite
	case entry.SelectChoices != "" && !questionFieldRe.MatchString(entry.FieldName):
		f.Kind = KindEnum
		f.Options = parseOptions(entry.SelectChoices)
	case entry.FieldType == "truefalse":
		f.Kind = KindBoolean
	case entry.TextValidation == "number":
		f.Kind = KindNumber
	}

	return f
}

// parseOptions splits "1, Strongly agree | 2, Agree" into code/label pairs
func parseOptions(choices string) []Option {
	parts := strings.Split(choices, optionDelimiter)
	options := make([]Option, 0, len(parts))

	for _, part := range parts {
		code, label, found := strings.Cut(part, optionComponentDelimiter)
		if !found {
			continue
		}
		options = append(options, Option{
			Code:  strings.TrimSpace(code),
			Label: strings.TrimSpace(label),
		})
	}

	return options
}
