// Package sqlite stores driving logs and produced samples in SQLite.
//
// Store serves the scenes, frames and agents tables through the
// dataset.Accessor interface, so the sampler can read a log straight
// from disk with indexed range queries. SampleStore persists the output
// of a sampling run. The schema is managed by embedded golang-migrate
// migrations applied on Open.
package sqlite
