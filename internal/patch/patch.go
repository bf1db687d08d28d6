// Package patch holds the unified-diff object model and the tolerant
// parser that builds it. A parsed PatchSet is read-only: the parser
// constructs it in full and hands it out, and the apply side only ever
// reads from it.
package patch

import (
	"bytes"
	"errors"

	"github.com/sevigo/patchwork/internal/lineio"
)

// DevNull is the sentinel filename marking an absent side of a file
// patch (creation or deletion).
var DevNull = []byte("/dev/null")

// ErrNoPatch is returned when the input contains no parseable file patch.
var ErrNoPatch = errors.New("patch: no file patches found in input")

// ErrEmptyPatch is returned for zero-byte input.
var ErrEmptyPatch = errors.New("patch: empty input")

// Dialect identifies the version-control flavor a patch was produced by.
type Dialect int

const (
	DialectPlain Dialect = iota
	DialectGit
	DialectMercurial
	DialectSubversion
	// DialectMixed is only ever set on a PatchSet whose items disagree.
	DialectMixed
)

func (d Dialect) String() string {
	switch d {
	case DialectGit:
		return "git"
	case DialectMercurial:
		return "mercurial"
	case DialectSubversion:
		return "subversion"
	case DialectMixed:
		return "mixed"
	default:
		return "plain"
	}
}

// BodyLine is one side of a hunk body after prefix and terminator
// removal, as used by the matcher and rewriter.
type BodyLine struct {
	Content   []byte
	NoNewline bool // a "\ No newline at end of file" marker followed it
}

// Hunk is one contiguous change block within one file. Text holds the
// raw body lines including their prefix byte and terminator.
type Hunk struct {
	StartSrc, LinesSrc int
	StartTgt, LinesTgt int
	Desc               []byte
	Text               [][]byte
	Invalid            bool
}

// SourceBody returns the pre-image of the hunk: context and deletion
// lines in order, prefixes and terminators stripped.
func (h *Hunk) SourceBody() []BodyLine {
	return h.body(' ', '-')
}

// TargetBody returns the post-image of the hunk: context and addition
// lines in order, prefixes and terminators stripped.
func (h *Hunk) TargetBody() []BodyLine {
	return h.body(' ', '+')
}

func (h *Hunk) body(a, b byte) []BodyLine {
	var out []BodyLine
	prevIncluded := false
	for _, raw := range h.Text {
		if len(raw) == 0 {
			prevIncluded = false
			continue
		}
		switch raw[0] {
		case a, b:
			out = append(out, BodyLine{Content: lineio.Content(raw[1:])})
			prevIncluded = true
		case '\\':
			// the marker binds to the immediately preceding body line,
			// which may belong to the other side of the hunk
			if prevIncluded && len(out) > 0 {
				out[len(out)-1].NoNewline = true
			}
		default:
			prevIncluded = false
		}
	}
	return out
}

// Reversed returns a copy of the hunk with source and target roles
// swapped, used by revert and by the already-applied probe.
func (h *Hunk) Reversed() *Hunk {
	r := &Hunk{
		StartSrc: h.StartTgt, LinesSrc: h.LinesTgt,
		StartTgt: h.StartSrc, LinesTgt: h.LinesSrc,
		Desc:    h.Desc,
		Invalid: h.Invalid,
		Text:    make([][]byte, len(h.Text)),
	}
	for i, raw := range h.Text {
		if len(raw) > 0 && (raw[0] == '+' || raw[0] == '-') {
			flipped := make([]byte, len(raw))
			copy(flipped, raw)
			if raw[0] == '+' {
				flipped[0] = '-'
			} else {
				flipped[0] = '+'
			}
			r.Text[i] = flipped
			continue
		}
		r.Text[i] = raw
	}
	return r
}

// FilePatch is the ordered set of hunks against one logical file.
type FilePatch struct {
	Header  [][]byte // raw lines preceding ---/+++, used for dialect detection
	Source  []byte   // normalized source filename, may be DevNull
	Target  []byte   // normalized target filename, may be DevNull
	Hunks   []*Hunk
	Dialect Dialect
	Added   int
	Removed int
}

// Name returns the filename the patch operates on: the shared name when
// both sides agree, otherwise the non-sentinel side, otherwise the
// source (the file on disk that would be rewritten). Names are never
// invented here; both sides come from the input.
func (fp *FilePatch) Name() []byte {
	switch {
	case bytes.Equal(fp.Source, DevNull):
		return fp.Target
	case bytes.Equal(fp.Target, DevNull):
		return fp.Source
	case bytes.Equal(fp.Source, fp.Target):
		return fp.Source
	default:
		return fp.Source
	}
}

// IsCreate reports whether the patch describes file creation. The core
// parses but never executes these.
func (fp *FilePatch) IsCreate() bool { return bytes.Equal(fp.Source, DevNull) }

// IsDelete reports whether the patch describes file deletion.
func (fp *FilePatch) IsDelete() bool { return bytes.Equal(fp.Target, DevNull) }

// PatchSet is the whole parsed artifact.
type PatchSet struct {
	Items   []*FilePatch
	Dialect Dialect
	Events  []Event
}

// Errors counts fatal per-item parse failures (the item was dropped).
func (ps *PatchSet) Errors() int { return ps.count(SeverityError) }

// Warnings counts recovered anomalies (the item was kept, possibly with
// invalid hunks).
func (ps *PatchSet) Warnings() int { return ps.count(SeverityWarning) }

func (ps *PatchSet) count(sev Severity) int {
	n := 0
	for _, ev := range ps.Events {
		if ev.Severity == sev {
			n++
		}
	}
	return n
}

// TotalChanges returns the summed added and removed line counts.
func (ps *PatchSet) TotalChanges() (added, removed int) {
	for _, fp := range ps.Items {
		added += fp.Added
		removed += fp.Removed
	}
	return added, removed
}
