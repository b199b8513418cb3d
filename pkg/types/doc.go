// Package types defines the storage data model for rackgrid: locations,
// containers, labeling schemes, travel directions, the Cabinet and Table
// storage interfaces, and the standard errors shared by the engine and its
// backends.
package types
