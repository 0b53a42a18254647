package contracts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// OrganizationsYAML is the HTTP contract served by apps/api.
//
//go:embed organizations.yaml
var OrganizationsYAML []byte

// LoadOrganizations parses and validates the embedded contract.
func LoadOrganizations() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(OrganizationsYAML)
	if err != nil {
		return nil, fmt.Errorf("load organizations contract: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate organizations contract: %w", err)
	}
	return doc, nil
}
