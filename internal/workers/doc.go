// Package workers calculates worker pool ceilings for the sync pipeline.
//
// Ceilings are derived from available CPU (respecting container limits via
// GOMAXPROCS) and capped per phase: the stat/diff phase is cheap and runs
// wide, while the read+hash+normalize phase holds file handles and decoded
// records so it runs narrower.
package workers
