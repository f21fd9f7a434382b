// Package extension provides a run-time registry binding action types to
// user-defined Go payload types, so that action data and step inputs can be
// validated at the service boundary. Unregistered action types pass through
// untouched.
package extension
