package preflight

import (
	"context"

	"subforge/internal/config"
)

// Result reports the outcome of a single preflight check. Optional checks
// cover features the core commands can run without.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckArchive(ctx, cfg),
	}

	llmCheck := CheckLLM(ctx, "Translation LLM", cfg.GetLLM())
	llmCheck.Optional = true
	results = append(results, llmCheck)

	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
