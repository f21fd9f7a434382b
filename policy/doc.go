// Package policy provides declarative per-team autonomy rules consulted by
// the engine before agent actions run without human approval, plus context
// helpers to thread a config through an execution.
package policy
