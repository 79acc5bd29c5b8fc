// Package setting persists the confirmed game installation path between runs.
//
// The value lives under an environment-style key (HEARTHSTONE_HOME by default).
// On Windows it is stored in the user's registry environment; elsewhere in a
// YAML file under the XDG config home.
package setting
