package preflight

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"photomerge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for a merge of archives into outputDir.
// Directories are expected to exist already; callers run
// config.EnsureDirectories first.
func RunAll(cfg *config.Config, outputDir string, archives []string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", outputDir),
		CheckDirectoryAccess("Dedup store directory", filepath.Dir(cfg.Paths.DedupStore)),
		CheckDirectoryAccess("Journal directory", filepath.Dir(cfg.Paths.JournalPath)),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	var total int64
	for _, path := range archives {
		result, size := CheckArchive(path)
		results = append(results, result)
		total += size
	}
	results = append(results, CheckFreeSpace("Output free space", outputDir, total))
	return results
}

// Err joins the failed results into one error, or returns nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return errors.New("preflight failed: " + strings.Join(failed, "; "))
}
