// Package grid addresses slots inside a storage location. It converts slot
// indices to labels and back, indexes which container sits in which slot,
// and computes the next position for a travel direction. Everything here is
// a pure function over an in-memory snapshot.
package grid
