package apply

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sevigo/patchwork/internal/lineio"
	"github.com/sevigo/patchwork/internal/patch"
)

// render streams the target lines through the matched hunks and
// produces the rewritten file content. Unmodified lines are copied
// verbatim with their original terminators. Replaced lines take the
// terminator of the source line at the same position when one exists,
// falling back to the file's dominant terminator, and no-newline
// markers on the target side suppress the final terminator.
func render(matches []hunkMatch, lines [][]byte) ([]byte, error) {
	sorted := make([]hunkMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].pos < sorted[j].pos })

	dom := lineio.DominantTerminator(lines)
	var out bytes.Buffer
	idx := 0
	for i, m := range sorted {
		if m.pos < idx {
			return nil, fmt.Errorf("hunk %d overlaps the previous hunk after matching: %w", i+1, ErrHunkMismatch)
		}
		for ; idx < m.pos; idx++ {
			out.Write(lines[idx])
		}
		srcN := len(m.hunk.SourceBody())
		for k, bl := range m.hunk.TargetBody() {
			out.Write(bl.Content)
			if bl.NoNewline {
				continue
			}
			var term []byte
			if k < srcN && idx+k < len(lines) {
				term = lineio.Terminator(lines[idx+k])
			}
			if len(term) == 0 {
				term = dom
			}
			out.Write(term)
		}
		idx += srcN
	}
	for ; idx < len(lines); idx++ {
		out.Write(lines[idx])
	}
	return out.Bytes(), nil
}

// writeAtomic replaces path with data via a sibling temp file on the
// same filesystem: write, fsync, rename. The original file is left
// untouched on any failure.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".patchwork-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace target: %w", err)
	}
	return nil
}

// reversed returns the hunk list with source and target roles swapped.
func reversed(hunks []*patch.Hunk) []*patch.Hunk {
	out := make([]*patch.Hunk, len(hunks))
	for i, h := range hunks {
		out[i] = h.Reversed()
	}
	return out
}
