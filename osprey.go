// Package osprey assesses the architecture of a codebase: file-level
// dependency coupling and layer separation.
package osprey

// Version is the current osprey release
const Version = "0.1.0"
