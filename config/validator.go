package config

import (
	"sync"

	"github.com/grovetools/keyflow/schema"
)

// compiledSettingsSchema is built once per process.
var compiledSettingsSchema = sync.OnceValues(func() (*schema.Validator, error) {
	data, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	return schema.NewValidator("keyflow.schema.json", data)
})

// SchemaValidator checks settings documents against the generated schema.
type SchemaValidator struct {
	validator *schema.Validator
}

func NewSchemaValidator() (*SchemaValidator, error) {
	v, err := compiledSettingsSchema()
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{validator: v}, nil
}

// Validate returns a *schema.ViolationError when settings break the schema.
func (v *SchemaValidator) Validate(settings interface{}) error {
	return v.validator.Validate(settings)
}
