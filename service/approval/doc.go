// Package approval implements the human-in-the-loop gate for risky agent
// actions. Actions queued here stay pending until a reviewer decides, an
// automation decides, or they expire; a pending action leaves the pending
// state exactly once.
package approval
