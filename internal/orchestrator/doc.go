// Package orchestrator implements the task orchestration core: the task
// state machine, the human override gate, the reprocess coordinator, and
// the event contract that ties them together.
//
// Each task is a single-writer resource. The Evaluator serializes
// evaluations per task ID while different tasks evaluate fully in
// parallel. Every evaluation, including suppressed and no-op ones,
// appends exactly one decision log entry, so the log is a complete audit
// of what the agent saw and did.
package orchestrator
