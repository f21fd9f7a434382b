// Package model contains the in-memory representation of workflow
// definitions and their version history.
//
// A definition is typically loaded from a YAML document into the structures
// defined here and in the `graph` sub-package. The root model package
// aggregates those building blocks so that they can be referenced from other
// parts of the code base with a single import.
package model
