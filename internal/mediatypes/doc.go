// Package mediatypes provides shared type definitions for item classification
// and sorting across the index.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains primitive types,
// constants, and pure utility functions with no external dependencies beyond
// the standard library.
//
// Use GetItemType to classify an item from its file extension when the
// sidecar record does not declare a type:
//
//	ext := strings.ToLower(filepath.Ext(name))
//	itemType := mediatypes.GetItemType(ext)
package mediatypes
