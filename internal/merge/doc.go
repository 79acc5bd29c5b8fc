// Package merge moves the extracted patch tree into the installation
// directory, overwriting files that already exist.
//
// Files are moved, not copied, so a successful merge leaves the patch tree
// with empty directories only, which the cleanup step then removes.
package merge
