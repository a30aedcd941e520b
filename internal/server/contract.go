package server

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var contractYAML []byte

// Contract returns the raw OpenAPI document served at /openapi.yaml.
func Contract() []byte {
	return contractYAML
}

// contract holds the request body schemas of the embedded OpenAPI document,
// keyed by operationId.
type contract struct {
	bodies map[string]*openapi3.Schema
}

func loadContract(ctx context.Context) (*contract, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(contractYAML)
	if err != nil {
		return nil, fmt.Errorf("server: load contract: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("server: validate contract: %w", err)
	}

	c := &contract{bodies: make(map[string]*openapi3.Schema)}
	for _, item := range doc.Paths.Map() {
		for _, op := range item.Operations() {
			if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
				continue
			}
			mt := op.RequestBody.Value.Content.Get("application/json")
			if mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
				continue
			}
			c.bodies[op.OperationID] = mt.Schema.Value
		}
	}
	return c, nil
}

// validateBody checks a decoded JSON body against the operation's request
// schema. Operations without a body schema accept anything.
func (c *contract) validateBody(operationID string, body any) error {
	schema, ok := c.bodies[operationID]
	if !ok {
		return nil
	}
	if err := schema.VisitJSON(body, openapi3.MultiErrors()); err != nil {
		return err
	}
	return nil
}
