package pubdev

import (
	"fmt"
	"strings"
)

// VersionNotFoundError is returned when a requested version is absent from
// a package's version list
type VersionNotFoundError struct {
	Package string
	Version string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %s not found for package %s", e.Version, e.Package)
}

// UnsupportedDocTypeError is returned for documentation types outside DocTypes
type UnsupportedDocTypeError struct {
	DocType string
}

func (e *UnsupportedDocTypeError) Error() string {
	names := make([]string, len(DocTypes))
	for i, t := range DocTypes {
		names[i] = string(t)
	}
	return fmt.Sprintf("Unsupported documentation type: %s (expected one of: %s)", e.DocType, strings.Join(names, ", "))
}

// InvalidSortError is returned for search sort orders the registry does not accept
type InvalidSortError struct {
	Sort string
}

func (e *InvalidSortError) Error() string {
	return fmt.Sprintf("unsupported sort order: %s (expected one of: %s)", e.Sort, strings.Join(SortOrders, ", "))
}
