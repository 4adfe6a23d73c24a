package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ===================
// Command Execution Utilities
// ===================

// ExecContext executes an external command in workDir, capturing stdout.
// On failure the returned error includes the command's stderr, trimmed.
//
// No timeout is applied; callers that need one should derive a context.
func ExecContext(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%s %s: %w: %s",
				name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return stdout.Bytes(), nil
}

// ===================
// Output Parsing Utilities
// ===================

// TrimOutput trims whitespace and trailing newlines from command output.
func TrimOutput(output []byte) string {
	return strings.TrimSpace(string(output))
}

// ShortID abbreviates a commit ID for diagnostics.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RevErr formats an error message attributed to a specific commit.
func RevErr(c Commit, message string) string {
	return fmt.Sprintf("rev %s: %s", ShortID(c.ID), message)
}
