// Package dataset owns the scene/frame/agent data model of a recorded
// driving log and the read-only accessors used to walk it.
//
// Responsibilities: typed records for scenes, frames and agent
// detections, the half-open index intervals that join them, the
// ego/agent Target choice, and an in-memory table set that satisfies
// the Accessor interface.
// Key types: Scene, Frame, Agent, Interval, Target, Tables.
//
// No SQL/database code is allowed in this package; the sqlite-backed
// accessor lives in internal/storage/sqlite.
package dataset
