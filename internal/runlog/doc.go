// Package runlog writes an optional NDJSON journal of a patch run.
//
// Each pipeline stage appends a start and finish record keyed by the run id, so
// a support request can be answered from a single file instead of a screenshot
// of the console window.
package runlog
