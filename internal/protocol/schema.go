package protocol

import (
	"fmt"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schemas holds the compiled wire schemas used to validate inbound action
// bodies before they reach the engine.
type Schemas struct {
	Action *jsonschema.Schema
	Event  *jsonschema.Schema
}

func LoadSchemas(dir string) (Schemas, error) {
	var s Schemas
	var err error
	if s.Action, err = jsonschema.Compile(filepath.Join(dir, "action.schema.json")); err != nil {
		return s, fmt.Errorf("compile action schema: %w", err)
	}
	if s.Event, err = jsonschema.Compile(filepath.Join(dir, "event.schema.json")); err != nil {
		return s, fmt.Errorf("compile event schema: %w", err)
	}
	return s, nil
}
