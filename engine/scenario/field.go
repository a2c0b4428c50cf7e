package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldType is the type tag of an interface descriptor node.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldNumber     FieldType = "number"
	FieldInteger    FieldType = "integer"
	FieldUinteger   FieldType = "uinteger"
	FieldBoolean    FieldType = "boolean"
	FieldArray      FieldType = "array"
	FieldCollection FieldType = "collection"
	FieldSelect     FieldType = "select"
	FieldDate       FieldType = "date"
	FieldTime       FieldType = "time"
	FieldTimezone   FieldType = "timezone"
	FieldEmail      FieldType = "email"
	FieldURL        FieldType = "url"
	FieldColor      FieldType = "color"
	FieldJSON       FieldType = "json"
	FieldBuffer     FieldType = "buffer"
	FieldFilename   FieldType = "filename"
	FieldPath       FieldType = "path"
	FieldHidden     FieldType = "hidden"
)

func (t FieldType) String() string {
	return string(t)
}

// IsComposite reports whether nodes of this type carry a nested spec.
func (t FieldType) IsComposite() bool {
	return t == FieldArray || t == FieldCollection
}

// Field is one node of a scenario interface descriptor tree.
type Field struct {
	Name     string     `json:"name"`
	Type     FieldType  `json:"type"`
	Label    string     `json:"label,omitempty"`
	Help     string     `json:"help,omitempty"`
	Required bool       `json:"required,omitempty"`
	Multiple bool       `json:"multiple,omitempty"`
	Default  any        `json:"default,omitempty"`
	Options  OptionList `json:"options,omitempty"`
	Spec     *Spec      `json:"spec,omitempty"`
}

// Children returns the child nodes of a collection, or nil.
func (f *Field) Children() []Field {
	if f.Spec == nil {
		return nil
	}
	return f.Spec.Fields
}

// Option is a selectable value of a select field.
type Option struct {
	Label string `json:"label,omitempty"`
	Value any    `json:"value"`
}

// OptionList holds static select options. Options served by a remote
// lookup arrive as a string reference and decode to an empty list.
type OptionList []Option

func (o *OptionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*o = nil
		return nil
	}
	var opts []Option
	if err := json.Unmarshal(data, &opts); err != nil {
		return fmt.Errorf("failed to decode select options: %w", err)
	}
	*o = opts
	return nil
}

// Spec is the nested part of a composite node. The platform encodes it either
// as a list of child fields (collections, arrays of objects) or as a single
// field describing each array element.
type Spec struct {
	Fields []Field
	Item   *Field
}

// IsList reports whether the spec was given as a list of fields.
func (s *Spec) IsList() bool {
	return s.Item == nil
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		var fields []Field
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("failed to decode spec fields: %w", err)
		}
		s.Fields = fields
		return nil
	case data[0] == '{':
		var item Field
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("failed to decode spec item: %w", err)
		}
		s.Item = &item
		return nil
	default:
		return fmt.Errorf("unexpected spec encoding: %s", string(data))
	}
}

func (s Spec) MarshalJSON() ([]byte, error) {
	if s.Item != nil {
		return json.Marshal(s.Item)
	}
	if s.Fields == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Fields)
}

// ListSpec builds a list spec from fields.
func ListSpec(fields ...Field) *Spec {
	return &Spec{Fields: fields}
}

// ItemSpec builds a single-element spec.
func ItemSpec(item Field) *Spec {
	return &Spec{Item: &item}
}

// Wrapper builds the synthetic collection node that roots a tool's input schema.
func Wrapper(inputs []Field) *Field {
	return &Field{Name: "wrapper", Type: FieldCollection, Spec: ListSpec(inputs...)}
}
