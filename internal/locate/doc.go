// Package locate resolves the game installation directory.
//
// Candidates are tried in order: an explicit path, the conventional default
// path, the persisted setting, and finally a parallel scan of the top-level
// directories under the scan root. The first directory whose base name
// matches the target wins; other scan branches are cancelled.
package locate
