// Package runmeta carries per-run generation metadata through context.
//
// Overview:
//   - Responsibility: Store and retrieve the input mode and output directory of the current run
//   - Key Types: Run for run metadata
//   - Concurrency Model: All functions are safe for concurrent use; Run is never mutated after attach
//   - Error Semantics: Functions return boolean to indicate presence of data
//   - Performance Notes: Context-based storage, one allocation per run
//
// Usage:
//
//	ctx = runmeta.With(ctx, &runmeta.Run{Mode: "headless", OutputDir: "./app"})
//	run, ok := runmeta.From(ctx)
package runmeta

import "context"

// Run describes one generation run.
type Run struct {
	Mode      string // Input mode that produced the spec: headless, spec, interactive
	OutputDir string // Directory the tree is committed to
	DryRun    bool   // Whether the commit step is skipped
}

type contextKey string

const runKey contextKey = "run"

// With stores run metadata in the context.
func With(ctx context.Context, r *Run) context.Context {
	return context.WithValue(ctx, runKey, r)
}

// From retrieves run metadata from the context.
func From(ctx context.Context) (*Run, bool) {
	r, ok := ctx.Value(runKey).(*Run)
	return r, ok && r != nil
}
