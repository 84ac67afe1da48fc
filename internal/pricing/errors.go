// Package pricing turns matched products into priced vendor quotes.
package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrVendorInvalid marks a vendor that cannot be quoted for every requirement.
	ErrVendorInvalid = errors.New("vendor invalid for quoting")
	// ErrNoQuotesAvailable is returned when every vendor was dropped.
	ErrNoQuotesAvailable = errors.New("no valid vendor quotes available")
)

// NoMatchError reports a requirement the vendor has no product for.
type NoMatchError struct {
	Vendor        string
	RequirementID string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("vendor %s has no matched product for requirement %s", e.Vendor, e.RequirementID)
}

func (e *NoMatchError) Unwrap() error {
	return ErrVendorInvalid
}

// ZeroCoverageError reports a matched product whose coverage cannot be divided by.
type ZeroCoverageError struct {
	Vendor    string
	ProductID string
}

func (e *ZeroCoverageError) Error() string {
	return fmt.Sprintf("vendor %s product %s has no usable coverage", e.Vendor, e.ProductID)
}

func (e *ZeroCoverageError) Unwrap() error {
	return ErrVendorInvalid
}
