// Package syncer drives synchronization between the on-disk sidecar library
// and the relational index.
//
// A run moves through scanning, analyzing, processing and
// writing-relationships before completing or failing; runs are single-flight
// and strictly forward, restarting from scanning on retry. Items are
// processed in sequential chunks with concurrent sidecar reads inside each
// chunk, and every chunk write is transactional with a per-row fallback.
// Progress is delivered through a caller-supplied sink; the package keeps no
// global run state.
package syncer
