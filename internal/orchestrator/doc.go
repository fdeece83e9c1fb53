// Package orchestrator drives the capture session lifecycle: acquiring an
// artifact by recording or upload, holding it for review, running the
// processing pipeline exactly once per confirm, and navigating to results
// after completion. State lives in the session store; the orchestrator owns
// the in-flight work (captures, pipeline runs, navigation timers) and keeps
// the store transitions consistent with it.
package orchestrator
