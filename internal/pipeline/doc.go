// Package pipeline runs the post-capture processing sequence for a session:
// ensure the user profile exists, register the recording, generate the heart
// rate series and risk prediction, and persist both. Steps run in order and
// the first failure aborts the remainder; rows persisted by earlier steps
// are left in place.
package pipeline
