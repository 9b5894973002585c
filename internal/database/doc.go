// Package database is the relational index for the sidecar library.
//
// It stores one row per media item plus tag and folder membership rows, and
// serves both the sync pipeline's write paths and the search/listing read
// surface. Multi-row writes always run in a single transaction, and the
// listing, count and total-size query shapes share one predicate tree so
// their results stay consistent.
//
// The schema is managed with embedded golang-migrate migrations and the
// database runs in WAL mode so readers are not blocked while a sync run
// writes.
package database
