// Package sidecar reads the on-disk media library: one directory per item
// holding a JSON sidecar record that is the authoritative source of truth for
// that item's metadata.
//
// The package has two halves. Store enumerates, stats and reads item
// directories plus the optional bulk modification-time map. Record holds the
// raw sidecar shape and normalizes it into the canonical index row, including
// the content hash used to detect no-op re-writes.
package sidecar
