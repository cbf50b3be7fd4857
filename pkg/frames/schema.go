package frames

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema describes the wire shape of a Frame. Definitions are inlined so
// the schema is self-contained.
func JSONSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schema := reflector.Reflect(&Frame{})
	schema.Version = ""
	schema.ID = ""
	schema.Title = "Responses aggregator frame"
	return schema
}

// ValidateFrameJSON checks a marshalled frame against JSONSchema.
func ValidateFrameJSON(b []byte) error {
	schema, err := json.Marshal(JSONSchema())
	if err != nil {
		return errors.Wrap(err, "marshal frame schema")
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(b))
	if err != nil {
		return errors.Wrap(err, "failed to validate frame")
	}
	if result.Valid() {
		return nil
	}
	descriptions := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		descriptions = append(descriptions, desc.String())
	}
	return errors.Errorf("invalid frame: %s", strings.Join(descriptions, "; "))
}
