package register

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// PayloadSchema describes the monthly register payload as JSON Schema.
func PayloadSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.Reflect(&Payload{})
	s.Title = "Monthly attendance register"
	s.Description = "data field of GET attendances/monthly_register"

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return out, nil
}
