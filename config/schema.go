package config

//go:generate go run ../tools/schema-generator -dir ../schema/definitions

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/grovetools/keyflow/pkg/models"
)

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		// Property names follow the YAML keys users write.
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		Mapper:                     mapType,
	}
}

// GenerateSchema reflects Settings into the JSON Schema for keyflow.yml.
func GenerateSchema() ([]byte, error) {
	s := reflector().Reflect(&Settings{})
	s.Title = "Keyflow Configuration"
	s.Description = "Settings for the keyflow daemon (keyflow.yml)."
	return json.MarshalIndent(s, "", "  ")
}

// GenerateGroupsSchema describes the groups file. Commands are left open
// because their keys depend on the command kind.
func GenerateGroupsSchema() ([]byte, error) {
	s := reflector().Reflect(&groupsFile{})
	s.Title = "Keyflow Groups"
	s.Description = "Workflow groups loaded by the keyflow daemon."
	return json.MarshalIndent(s, "", "  ")
}

func mapType(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeOf(models.Execution("")):
		return &jsonschema.Schema{
			Type: "string",
			Enum: []interface{}{string(models.ExecutionSerial), string(models.ExecutionConcurrent)},
		}
	case reflect.TypeOf(models.KeyShortcut{}):
		return keyShortcutSchema()
	}
	return nil
}

// keyShortcutSchema accepts "cmd+shift+d" or the expanded object form.
func keyShortcutSchema() *jsonschema.Schema {
	modifiers := []interface{}{
		string(models.ModifierFunction), string(models.ModifierControl), string(models.ModifierOption),
		string(models.ModifierShift), string(models.ModifierCommand),
	}
	props := jsonschema.NewProperties()
	props.Set("key", &jsonschema.Schema{Type: "string"})
	props.Set("lhs", &jsonschema.Schema{Type: "boolean"})
	props.Set("modifiers", &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "string", Enum: modifiers},
	})
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Description: "Shortcut such as cmd+shift+d"},
			{
				Type:                 "object",
				Properties:           props,
				Required:             []string{"key"},
				AdditionalProperties: jsonschema.FalseSchema,
			},
		},
	}
}
