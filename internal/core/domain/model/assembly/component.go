package assembly

import (
	"strings"

	"mfps/internal/pkg/errs"
)

// Component is a single part of a modular furniture product.
// Components are value objects identified by their catalog id.
type Component struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate checks that the component carries both a catalog id and a name.
func (c Component) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errs.NewValueIsRequiredError("component.id")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errs.NewValueIsRequiredError("component.name")
	}
	return nil
}

// Catalog returns the predefined modular furniture components the factory
// can assemble. The slice is freshly allocated on every call so callers can
// modify it safely.
func Catalog() []Component {
	return []Component{
		{ID: "comp-001", Name: "Table Top"},
		{ID: "comp-002", Name: "Table Legs"},
		{ID: "comp-003", Name: "Chair Seat"},
		{ID: "comp-004", Name: "Chair Backrest"},
		{ID: "comp-005", Name: "Sofa Cushion"},
		{ID: "comp-006", Name: "Sofa Frame"},
	}
}

// Blueprint describes a product to assemble: a named selection of catalog
// components. Blueprints arrive from the outside (HTTP) and are validated
// before an order is created from them.
type Blueprint struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Components []Component `json:"components"`
}

// Validate checks that the blueprint is complete enough to create an order.
func (b Blueprint) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errs.NewValueIsRequiredError("blueprint.id")
	}
	if strings.TrimSpace(b.Name) == "" {
		return errs.NewValueIsRequiredError("blueprint.name")
	}
	if len(b.Components) == 0 {
		return errs.NewValueIsRequiredError("blueprint.components")
	}
	for _, c := range b.Components {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
