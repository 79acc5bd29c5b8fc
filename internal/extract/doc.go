// Package extract unpacks the downloaded patch zip into the installation
// directory.
package extract
