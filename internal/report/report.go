// Package report holds the built-in status report sent when no message is configured.
package report

import (
	_ "embed"
	"strings"
)

//go:embed completion_report.md
var completionReport string

// Default returns the built-in completion report
func Default() string {
	return strings.TrimRight(completionReport, "\n")
}
