// Package readme offers to move the patch's readme from the installation
// directory to the user's desktop.
package readme
