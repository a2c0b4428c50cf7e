package toolschema

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/compozy/scenario-mcp/engine/scenario"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func propertyNames(s *jsonschema.Schema) []string {
	var names []string
	if s.Properties == nil {
		return names
	}
	for p := s.Properties.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	return names
}

func property(t *testing.T, s *jsonschema.Schema, name string) *jsonschema.Schema {
	t.Helper()
	require.NotNil(t, s.Properties)
	prop, ok := s.Properties.Get(name)
	require.True(t, ok, "missing property %s", name)
	return prop
}

// depth walks a schema along object properties and array items.
func depth(s *jsonschema.Schema) int {
	if s == nil {
		return 0
	}
	maxChild := 0
	if s.Items != nil {
		maxChild = depth(s.Items)
	}
	if s.Properties != nil {
		for p := s.Properties.Oldest(); p != nil; p = p.Next() {
			if d := depth(p.Value); d > maxChild {
				maxChild = d
			}
		}
	}
	return maxChild + 1
}

func TestRemap_Primitives(t *testing.T) {
	cases := []struct {
		fieldType scenario.FieldType
		wantType  string
		format    string
	}{
		{scenario.FieldText, "string", ""},
		{scenario.FieldNumber, "number", ""},
		{scenario.FieldBoolean, "boolean", ""},
		{scenario.FieldInteger, "integer", ""},
		{scenario.FieldEmail, "string", "email"},
		{scenario.FieldURL, "string", "uri"},
		{scenario.FieldDate, "string", "date-time"},
		{scenario.FieldJSON, "string", ""},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("Should map %s to %s", tc.fieldType, tc.wantType), func(t *testing.T) {
			s, err := Remap(&scenario.Field{Name: "f", Type: tc.fieldType})
			require.NoError(t, err)
			assert.Equal(t, tc.wantType, s.Type)
			assert.Equal(t, tc.format, s.Format)
		})
	}
	t.Run("Should bound unsigned integers at zero", func(t *testing.T) {
		s, err := Remap(&scenario.Field{Name: "n", Type: scenario.FieldUinteger})
		require.NoError(t, err)
		assert.Equal(t, "integer", s.Type)
		assert.Equal(t, json.Number("0"), s.Minimum)
	})
}

func TestRemap_Collections(t *testing.T) {
	t.Run("Should preserve child order and required marking", func(t *testing.T) {
		inputs := []scenario.Field{
			{Name: "zeta", Type: scenario.FieldText, Required: true},
			{Name: "alpha", Type: scenario.FieldNumber},
			{Name: "mid", Type: scenario.FieldBoolean, Required: true},
		}
		s, err := RemapInterface(inputs)
		require.NoError(t, err)
		assert.Equal(t, "object", s.Type)
		assert.Equal(t, []string{"zeta", "alpha", "mid"}, propertyNames(s))
		assert.Equal(t, []string{"zeta", "mid"}, s.Required)
	})
	t.Run("Should treat fields as optional by default", func(t *testing.T) {
		s, err := RemapInterface([]scenario.Field{{Name: "a", Type: scenario.FieldText}})
		require.NoError(t, err)
		assert.Empty(t, s.Required)
	})
	t.Run("Should produce an object schema for zero inputs", func(t *testing.T) {
		s, err := RemapInterface(nil)
		require.NoError(t, err)
		raw, err := MarshalSchema(s)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"object","properties":{}}`, string(raw))
	})
	t.Run("Should pass label and help through", func(t *testing.T) {
		s, err := RemapInterface([]scenario.Field{{
			Name:    "city",
			Type:    scenario.FieldText,
			Label:   "City",
			Help:    "Where the order ships",
			Default: "Prague",
		}})
		require.NoError(t, err)
		city := property(t, s, "city")
		assert.Equal(t, "City", city.Title)
		assert.Equal(t, "Where the order ships", city.Description)
		assert.Equal(t, "Prague", city.Default)
	})
	t.Run("Should reject duplicate child names", func(t *testing.T) {
		_, err := RemapInterface([]scenario.Field{
			{Name: "a", Type: scenario.FieldText},
			{Name: "a", Type: scenario.FieldNumber},
		})
		require.Error(t, err)
		assert.True(t, IsInvalidDescriptor(err))
		assert.ErrorIs(t, err, core.ErrInternal)
	})
}

func TestRemap_Arrays(t *testing.T) {
	t.Run("Should map a single element spec to items", func(t *testing.T) {
		s, err := Remap(&scenario.Field{
			Name: "tags",
			Type: scenario.FieldArray,
			Spec: scenario.ItemSpec(scenario.Field{Name: "value", Type: scenario.FieldText}),
		})
		require.NoError(t, err)
		assert.Equal(t, "array", s.Type)
		require.NotNil(t, s.Items)
		assert.Equal(t, "string", s.Items.Type)
	})
	t.Run("Should map a list spec to object items", func(t *testing.T) {
		s, err := Remap(&scenario.Field{
			Name: "lines",
			Type: scenario.FieldArray,
			Spec: scenario.ListSpec(
				scenario.Field{Name: "sku", Type: scenario.FieldText, Required: true},
				scenario.Field{Name: "qty", Type: scenario.FieldNumber},
			),
		})
		require.NoError(t, err)
		require.NotNil(t, s.Items)
		assert.Equal(t, "object", s.Items.Type)
		assert.Equal(t, []string{"sku", "qty"}, propertyNames(s.Items))
		assert.Equal(t, []string{"sku"}, s.Items.Required)
	})
	t.Run("Should leave items open when no spec is given", func(t *testing.T) {
		s, err := Remap(&scenario.Field{Name: "any", Type: scenario.FieldArray})
		require.NoError(t, err)
		assert.Nil(t, s.Items)
	})
	t.Run("Should map selects to enums", func(t *testing.T) {
		field := &scenario.Field{
			Name:    "plan",
			Type:    scenario.FieldSelect,
			Options: scenario.OptionList{{Label: "Free", Value: "free"}, {Label: "Pro", Value: "pro"}},
		}
		s, err := Remap(field)
		require.NoError(t, err)
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, []any{"free", "pro"}, s.Enum)

		field.Multiple = true
		multi, err := Remap(field)
		require.NoError(t, err)
		assert.Equal(t, "array", multi.Type)
		assert.Equal(t, []any{"free", "pro"}, multi.Items.Enum)
	})
}

func TestRemap_Structure(t *testing.T) {
	t.Run("Should mirror nesting depth of the descriptor", func(t *testing.T) {
		leaf := scenario.Field{Name: "leaf", Type: scenario.FieldText}
		node := leaf
		const levels = 40
		for i := 0; i < levels; i++ {
			node = scenario.Field{
				Name: fmt.Sprintf("level%d", i),
				Type: scenario.FieldCollection,
				Spec: scenario.ListSpec(node),
			}
		}
		s, err := RemapInterface([]scenario.Field{node})
		require.NoError(t, err)
		// wrapper + collections + leaf
		assert.Equal(t, levels+2, depth(s))
	})
	t.Run("Should produce the expected document for a mixed tree", func(t *testing.T) {
		raw := `[
			{"name": "customer", "type": "collection", "required": true, "spec": [
				{"name": "name", "type": "text", "label": "Name", "required": true},
				{"name": "vip", "type": "boolean"}
			]},
			{"name": "items", "type": "array", "spec": [
				{"name": "sku", "type": "text"},
				{"name": "price", "type": "number"}
			]}
		]`
		var inputs []scenario.Field
		require.NoError(t, json.Unmarshal([]byte(raw), &inputs))
		s, err := RemapInterface(inputs)
		require.NoError(t, err)
		out, err := MarshalSchema(s)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type": "object",
			"required": ["customer"],
			"properties": {
				"customer": {
					"type": "object",
					"required": ["name"],
					"properties": {
						"name": {"type": "string", "title": "Name"},
						"vip": {"type": "boolean"}
					}
				},
				"items": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"sku": {"type": "string"},
							"price": {"type": "number"}
						}
					}
				}
			}
		}`, string(out))
	})
}

func TestRemap_UnsupportedType(t *testing.T) {
	t.Run("Should fail loudly and name the nested node", func(t *testing.T) {
		inputs := []scenario.Field{
			{Name: "ok", Type: scenario.FieldText},
			{Name: "customer", Type: scenario.FieldCollection, Spec: scenario.ListSpec(
				scenario.Field{Name: "kind", Type: "hologram"},
			)},
		}
		s, err := RemapInterface(inputs)
		require.Error(t, err)
		assert.Nil(t, s)
		var unsupported *UnsupportedTypeError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "kind", unsupported.Name)
		assert.Equal(t, "hologram", unsupported.Type)
		assert.Equal(t, "wrapper.customer.kind", unsupported.Path)
		assert.ErrorIs(t, err, core.ErrInternal)
		assert.True(t, IsUnsupportedType(err))
	})
	t.Run("Should fail inside array element specs", func(t *testing.T) {
		_, err := Remap(&scenario.Field{
			Name: "list",
			Type: scenario.FieldArray,
			Spec: scenario.ItemSpec(scenario.Field{Name: "x", Type: ""}),
		})
		var unsupported *UnsupportedTypeError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "list[]", unsupported.Path)
	})
	t.Run("Should reject a collection whose spec is a single field", func(t *testing.T) {
		var inputs []scenario.Field
		require.NoError(t, json.Unmarshal([]byte(`[
			{"name": "customer", "type": "collection", "spec": {"name": "email", "type": "email"}}
		]`), &inputs))
		_, err := RemapInterface(inputs)
		require.Error(t, err)
		assert.True(t, IsInvalidDescriptor(err))
		assert.ErrorContains(t, err, "wrapper.customer")
		assert.ErrorContains(t, err, "want a list")
	})
	t.Run("Should reject a nil descriptor", func(t *testing.T) {
		_, err := Remap(nil)
		assert.True(t, IsInvalidDescriptor(err))
	})
}
