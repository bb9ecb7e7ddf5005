package catalog

import (
	"fmt"
	"strings"
)

// Issue is one invariant violation found while loading a table.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// ValidationError reports malformed or invariant-violating catalog data.
// It carries every issue found, not only the first.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "catalog validation: " + e.Issues[0].String()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("catalog validation: %d issues: %s", len(e.Issues), strings.Join(parts, "; "))
}

// ConfigurationError reports a write to a sealed catalog, or a reference to
// an id that the loaded catalog does not know.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "catalog configuration: " + e.Op + ": " + e.Reason
}

// UnknownReference builds the ConfigurationError for a dangling id.
func UnknownReference(op, what, id string) *ConfigurationError {
	return &ConfigurationError{Op: op, Reason: fmt.Sprintf("unknown %s %q", what, id)}
}
