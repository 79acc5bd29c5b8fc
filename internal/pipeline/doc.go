// Package pipeline sequences a patch run: locate the installation, download
// the archive, extract it, merge the patch tree, clean up, and place the
// readme.
//
// Run never exits the process. Every failure comes back in the Outcome as a
// *StageError so the entry point can report it once and hold the window open.
package pipeline
