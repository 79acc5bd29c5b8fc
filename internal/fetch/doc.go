// Package fetch streams the patch archive from its URL to a local file.
package fetch
