// Package stacktrace trims panic stacks down to this module's own frames.
package stacktrace

import (
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// a runtime/debug.Stack dump that lives under an internal/ directory.
// File lines in such dumps are tab-indented and may end with " +0x1f".
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ".go:") {
			continue
		}

		line, _, _ = strings.Cut(line, " ")
		idx := strings.Index(line, marker)
		if idx == -1 {
			continue
		}
		paths = append(paths, line[idx+1:])
	}
	return paths
}
