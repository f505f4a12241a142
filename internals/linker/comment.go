package linker

import (
	"strings"
	"time"
)

type CommentInput struct {
	Date         time.Time
	Author       string
	ChangedFiles []string
	Message      string
	Summary      string
}

// FormatComment renders the markdown posted on the linked issue.
func FormatComment(in CommentInput) string {
	var sb strings.Builder
	sb.WriteString("**Date:** " + in.Date.Format(time.RFC1123) + "\n")
	sb.WriteString("**Author:** " + in.Author + "\n")
	sb.WriteString("**Changed Files:**\n")
	if len(in.ChangedFiles) == 0 {
		sb.WriteString("> (none)\n")
	}
	for _, f := range in.ChangedFiles {
		sb.WriteString("> " + f + "\n")
	}
	sb.WriteString("\n**Commit Message:** " + in.Message)
	if in.Summary != "" {
		sb.WriteString("\n\n**Summary:** " + in.Summary)
	}
	return sb.String()
}
