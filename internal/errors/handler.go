package errors

import (
	"strings"

	"github.com/fatih/color"
)

// Handler renders errors for the terminal.
type Handler struct {
	// Verbose adds the full cause chain under the headline.
	Verbose bool
}

// NewErrorHandler creates a Handler.
func NewErrorHandler(verbose bool) *Handler {
	return &Handler{Verbose: verbose}
}

// Format builds the colored, user-facing text for err.
func (h *Handler) Format(err error) string {
	if err == nil {
		return ""
	}
	var sb strings.Builder

	headline := err.Error()
	var de *DorkboxError
	if As(err, &de) && !h.Verbose {
		headline = de.Message
	}
	sb.WriteString(color.RedString("Error: %s\n", headline))

	if cause, ok := GetConflictCause(err); ok {
		sb.WriteString(color.YellowString("Cause: %s\n", cause))
	}
	if h.Verbose && de != nil && de.Cause != nil {
		sb.WriteString(color.YellowString("Details: %v\n", de.Cause))
	}

	if s := GetSuggestion(err); s != "" {
		sb.WriteString("\n")
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}
