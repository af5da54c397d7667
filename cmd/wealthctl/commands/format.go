package commands

import (
	"fmt"
	"io"

	"wealthbook/internal/services"
)

func printResult(w io.Writer, label string, r *services.BatchResult) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "%-16s succeeded=%d skipped=%d failed=%d\n", label, r.Succeeded, r.Skipped, r.Failed)
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  %-7s %-22s %s: %s\n", issue.Outcome, issue.Code, issue.Key, issue.Reason)
	}
}

// failed reports whether any result carries a failure. Skips are expected
// and do not fail a command.
func failed(results ...*services.BatchResult) bool {
	for _, r := range results {
		if r != nil && r.Failed > 0 {
			return true
		}
	}
	return false
}

func errIfFailed(results ...*services.BatchResult) error {
	if failed(results...) {
		return fmt.Errorf("completed with failures")
	}
	return nil
}
