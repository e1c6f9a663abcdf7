// Package runner maps run outcomes to process exit codes.
package runner

import (
	"fmt"

	"github.com/julianshen/docgen/internal/output"
)

// ExitError is returned when the CLI should exit with a non-zero code.
// Using a typed error instead of os.Exit ensures deferred cleanup runs.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Exit codes of the generate command.
const (
	ExitOK     = 0
	ExitFailed = 1 // the run itself failed
	ExitStrict = 2 // strict mode and at least one directory failed
)

// ExitCodeFromReport returns the exit code for a finished run. Directory
// failures only count when strict is set.
func ExitCodeFromReport(report *output.Report, strict bool) int {
	if report == nil || report.Error != "" {
		return ExitFailed
	}
	if strict && len(report.Failed) > 0 {
		return ExitStrict
	}
	return ExitOK
}
