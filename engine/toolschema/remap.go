package toolschema

import (
	"encoding/json"
	"fmt"

	"github.com/compozy/scenario-mcp/engine/scenario"
	"github.com/invopop/jsonschema"
)

// Remap translates a descriptor tree into a JSON schema of the same shape.
// Child order is preserved through the ordered properties map, and a field
// is required only when its descriptor says so.
func Remap(field *scenario.Field) (*jsonschema.Schema, error) {
	if field == nil {
		return nil, fmt.Errorf("%w: nil descriptor", errInvalidDescriptor)
	}
	return remapField(field, field.Name)
}

// RemapInterface remaps a scenario's inputs under the synthetic wrapper node.
func RemapInterface(inputs []scenario.Field) (*jsonschema.Schema, error) {
	return Remap(scenario.Wrapper(inputs))
}

// MarshalSchema renders a remapped schema as raw JSON for protocol payloads.
func MarshalSchema(s *jsonschema.Schema) (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema: %w", err)
	}
	return data, nil
}

func remapField(field *scenario.Field, path string) (*jsonschema.Schema, error) {
	var out *jsonschema.Schema
	switch field.Type {
	case scenario.FieldText, scenario.FieldColor, scenario.FieldTime, scenario.FieldTimezone,
		scenario.FieldJSON, scenario.FieldBuffer, scenario.FieldFilename, scenario.FieldPath,
		scenario.FieldHidden:
		out = &jsonschema.Schema{Type: "string"}
	case scenario.FieldEmail:
		out = &jsonschema.Schema{Type: "string", Format: "email"}
	case scenario.FieldURL:
		out = &jsonschema.Schema{Type: "string", Format: "uri"}
	case scenario.FieldDate:
		out = &jsonschema.Schema{Type: "string", Format: "date-time"}
	case scenario.FieldNumber:
		out = &jsonschema.Schema{Type: "number"}
	case scenario.FieldInteger:
		out = &jsonschema.Schema{Type: "integer"}
	case scenario.FieldUinteger:
		out = &jsonschema.Schema{Type: "integer", Minimum: json.Number("0")}
	case scenario.FieldBoolean:
		out = &jsonschema.Schema{Type: "boolean"}
	case scenario.FieldSelect:
		out = remapSelect(field)
	case scenario.FieldArray:
		s, err := remapArray(field, path)
		if err != nil {
			return nil, err
		}
		out = s
	case scenario.FieldCollection:
		if field.Spec != nil && !field.Spec.IsList() {
			return nil, fmt.Errorf("%w: collection %q at %s has a single-field spec, want a list", errInvalidDescriptor, field.Name, path)
		}
		s, err := remapCollection(field.Children(), path)
		if err != nil {
			return nil, err
		}
		out = s
	default:
		return nil, &UnsupportedTypeError{Path: path, Name: field.Name, Type: string(field.Type)}
	}
	out.Title = field.Label
	out.Description = field.Help
	if field.Default != nil {
		out.Default = field.Default
	}
	return out, nil
}

func remapSelect(field *scenario.Field) *jsonschema.Schema {
	value := &jsonschema.Schema{Type: "string"}
	if len(field.Options) > 0 {
		value.Enum = make([]any, 0, len(field.Options))
		for _, opt := range field.Options {
			value.Enum = append(value.Enum, opt.Value)
		}
	}
	if field.Multiple {
		return &jsonschema.Schema{Type: "array", Items: value}
	}
	return value
}

func remapArray(field *scenario.Field, path string) (*jsonschema.Schema, error) {
	out := &jsonschema.Schema{Type: "array"}
	spec := field.Spec
	switch {
	case spec == nil:
	case !spec.IsList():
		items, err := remapField(spec.Item, path+"[]")
		if err != nil {
			return nil, err
		}
		out.Items = items
	default:
		items, err := remapCollection(spec.Fields, path+"[]")
		if err != nil {
			return nil, err
		}
		out.Items = items
	}
	return out, nil
}

func remapCollection(children []scenario.Field, path string) (*jsonschema.Schema, error) {
	out := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	for i := range children {
		child := &children[i]
		childPath := path + "." + child.Name
		if child.Name == "" {
			return nil, fmt.Errorf("%w: unnamed field at %s[%d]", errInvalidDescriptor, path, i)
		}
		if _, exists := out.Properties.Get(child.Name); exists {
			return nil, fmt.Errorf("%w: duplicate field %q at %s", errInvalidDescriptor, child.Name, path)
		}
		prop, err := remapField(child, childPath)
		if err != nil {
			return nil, err
		}
		out.Properties.Set(child.Name, prop)
		if child.Required {
			out.Required = append(out.Required, child.Name)
		}
	}
	return out, nil
}
