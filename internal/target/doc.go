// Package target models the artifacts a task produces or consumes.
//
// A target is identified by its locator (a filesystem path for every kind
// shipped here). The engine only ever asks a target whether it exists; the
// content is the business of the tasks that read and write it.
//
// Writes through OpenForWrite are atomic: bytes go to a sibling temporary file
// which is renamed onto the locator when the writer is closed. A task that
// crashes or returns an error half way through therefore never leaves a
// partial artifact behind, and the next run does not mistake it for a
// finished output.
package target
