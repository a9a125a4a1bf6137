package script

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed script.schema.json
var schemaJSON string

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("script.schema.json", schemaJSON)
})

// validateYAML checks a raw YAML script document against the embedded JSON
// schema. YAML is decoded generically and round-tripped through JSON so the
// validator sees the same value shapes as for a JSON document.
func validateYAML(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile script schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
