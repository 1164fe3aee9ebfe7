// Package pipeline drives crawl cycles.
//
// Each source is processed by a Pipeline of Steps: fetch the homepage,
// discover article URLs, drop URLs that are already stored, then fetch,
// extract and persist every new article. The Orchestrator runs that pipeline
// for every active source in registry order and collects a CycleReport.
//
// Design decision: We keep the per-source work as a pipeline of steps
// instead of one long function because:
// 1. Each stage has its own collaborator and can be tested with a fake
// 2. Stopping a source early is a single sentinel error
// 3. Logging and cancellation checks happen in one place
//
// Failures never escape their scope: a failed URL is recorded and the
// source carries on, a failed source is recorded and the cycle carries on.
package pipeline
