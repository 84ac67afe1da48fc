// Package catalog loads vendor product catalogs.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/rfp-agent/internal/schemas"
	"github.com/jonathan/rfp-agent/internal/types"
)

// LoadError reports a catalog that could not be read or is malformed.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("catalog %s: %v", msg, e.Cause)
	}
	return "catalog " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// LoadFile reads a JSON catalog from path. An empty path returns Default().
func LoadFile(path string) (*types.Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "read failed", Cause: err}
	}
	c, err := Parse(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return nil, err
	}
	return c, nil
}

// Parse validates data against the catalog schema and decodes it.
// Products without a vendor inherit their vendor's name.
func Parse(data []byte) (*types.Catalog, error) {
	if err := schemas.Validate(schemas.Catalog, data); err != nil {
		return nil, &LoadError{Message: "schema validation failed", Cause: err}
	}
	var c types.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &LoadError{Message: "decode failed", Cause: err}
	}
	if err := normalize(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func normalize(c *types.Catalog) error {
	vendors := make(map[string]bool, len(c.Vendors))
	for vi := range c.Vendors {
		v := &c.Vendors[vi]
		if vendors[v.Name] {
			return &LoadError{Message: fmt.Sprintf("duplicate vendor %q", v.Name)}
		}
		vendors[v.Name] = true

		ids := make(map[string]bool, len(v.Products))
		for pi := range v.Products {
			p := &v.Products[pi]
			if ids[p.ID] {
				return &LoadError{Message: fmt.Sprintf("duplicate product %q for vendor %q", p.ID, v.Name)}
			}
			ids[p.ID] = true
			if p.Vendor == "" {
				p.Vendor = v.Name
			}
		}
	}
	return nil
}
