// Package apply locates hunks in target files and rewrites the files
// with byte-exact output. The matcher and renderer are pure functions
// of the patch and the target bytes; only the outer apply step touches
// the filesystem, and it replaces files atomically.
package apply

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sevigo/patchwork/internal/lineio"
	"github.com/sevigo/patchwork/internal/patch"
)

var (
	// ErrInvalidHunk is returned when an apply encounters a hunk the
	// parser flagged as invalid.
	ErrInvalidHunk = errors.New("apply: invalid hunk")
	// ErrHunkMismatch is returned when a hunk matches nowhere inside
	// the fuzz window.
	ErrHunkMismatch = errors.New("apply: hunk does not match target file")
)

// hunkMatch is one hunk pinned to a concrete position in the target.
type hunkMatch struct {
	hunk   *patch.Hunk
	pos    int // 0-based line index where the hunk's source body starts
	offset int // distance from the declared position
}

// matchHunks locates every hunk against the target lines. The declared
// position of each hunk is biased by the running shift committed by the
// hunks before it, then probed outward by ±1, ±2, ... up to fuzz lines.
// Comparison is newline-insensitive: terminators are stripped on both
// sides.
func matchHunks(hunks []*patch.Hunk, lines [][]byte, fuzz int) ([]hunkMatch, error) {
	matches := make([]hunkMatch, 0, len(hunks))
	shift := 0
	for i, h := range hunks {
		if h.Invalid {
			return nil, fmt.Errorf("hunk %d: %w", i+1, ErrInvalidHunk)
		}
		want := h.SourceBody()
		declared := h.StartSrc - 1 + shift
		if h.LinesSrc == 0 {
			// a pure insertion names the line it follows, not the line
			// it replaces
			declared = h.StartSrc + shift
		}
		pos, ok := locate(want, lines, declared, fuzz)
		if !ok {
			return nil, fmt.Errorf("hunk %d at line %d: %w", i+1, h.StartSrc, ErrHunkMismatch)
		}
		matches = append(matches, hunkMatch{hunk: h, pos: pos, offset: pos - declared})
		shift += pos - declared
	}
	return matches, nil
}

// locate probes the declared position first, then alternating positive
// and negative offsets up to the fuzz window.
func locate(want []patch.BodyLine, lines [][]byte, declared, fuzz int) (int, bool) {
	if matchesAt(want, lines, declared) {
		return declared, true
	}
	for off := 1; off <= fuzz; off++ {
		if matchesAt(want, lines, declared+off) {
			return declared + off, true
		}
		if matchesAt(want, lines, declared-off) {
			return declared - off, true
		}
	}
	return 0, false
}

func matchesAt(want []patch.BodyLine, lines [][]byte, pos int) bool {
	if pos < 0 || pos+len(want) > len(lines) {
		return false
	}
	for k, bl := range want {
		if !bytes.Equal(lineio.Content(lines[pos+k]), bl.Content) {
			return false
		}
	}
	return true
}
