// Package rackgrid holds module-level metadata.
package rackgrid

// Version is the release version of the rackgrid module and CLI.
const Version = "0.1.0"
