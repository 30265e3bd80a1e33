// Package sessionengine implements the live voting session engine inside the
// live-session context.
//
// The module owns the recurring INFO -> QUESTION -> RESULTS phase cycle, the
// per-identity vote ledger, running session statistics, and minority/conflict
// signals. All session mutation is serialized through one orchestrator loop;
// persistence and notification delivery sit behind ports and adapters so the
// session keeps working in memory when they are absent or failing.
package sessionengine
