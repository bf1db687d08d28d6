package patch

import (
	"bytes"
	"io"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/sevigo/patchwork/internal/lineio"
)

var hunkHeaderRegexp = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(?: (.*))?$`)

// headerStarts are the prefixes that begin a new file block and carry a
// dialect signal. Seeing one resets an already-signalled pending header.
var headerStarts = [][]byte{
	[]byte("diff --git "),
	[]byte("Index: "),
	[]byte("diff -r "),
}

type parseState int

const (
	stateHeader parseState = iota
	stateExpectTarget
	stateExpectSwappedSource
	stateHunkSeek
	stateHunkBody
	stateAfterHunk
)

// parser is the line-driven state machine of the patch core. All state
// lives here for the duration of one Parse call; the returned PatchSet
// owns every byte it exposes and keeps no reference to the input.
type parser struct {
	set    *PatchSet
	logger *slog.Logger

	state  parseState
	header [][]byte

	cur        *FilePatch
	headTerm   []byte
	termWarned bool
	skipToHunk bool

	hunk       *Hunk
	hunkLine   int
	srcNeed    int
	tgtNeed    int
	srcNoNL    bool
	tgtNoNL    bool
	lastPrefix byte
}

// Parse consumes raw patch bytes and builds a PatchSet. Recoverable
// anomalies are recorded as warning events on the set; unrecoverable
// per-file failures drop that file and continue. Parse fails outright
// only for empty input or input yielding no file patch at all.
func Parse(data []byte, logger *slog.Logger) (*PatchSet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPatch
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &parser{set: &PatchSet{}, logger: logger}
	sc := lineio.NewScanner(data)
	for {
		ln, ok := sc.Next()
		if !ok {
			break
		}
		if ln.EOF {
			p.finish(ln.Num)
			break
		}
		for reprocess := p.step(ln); reprocess; {
			reprocess = p.step(ln)
		}
	}
	detect(p.set)
	for _, ev := range p.set.Events {
		p.logger.Debug("parse diagnostic", "severity", ev.Severity.String(), "line", ev.Line, "msg", ev.Msg)
	}
	if len(p.set.Items) == 0 {
		return nil, ErrNoPatch
	}
	return p.set, nil
}

// step processes one line under the current state and reports whether
// the same line must be fed again after a state change.
func (p *parser) step(ln lineio.Line) bool {
	c := lineio.Content(ln.Text)
	switch p.state {
	case stateHeader:
		return p.stepHeader(ln, c)
	case stateExpectTarget:
		return p.stepExpectTarget(ln, c)
	case stateExpectSwappedSource:
		return p.stepExpectSwappedSource(ln, c)
	case stateHunkSeek:
		return p.stepHunkSeek(ln, c)
	case stateHunkBody:
		return p.stepHunkBody(ln, c)
	case stateAfterHunk:
		return p.stepAfterHunk(ln, c)
	}
	return false
}

func (p *parser) stepHeader(ln lineio.Line, c []byte) bool {
	switch {
	case bytes.HasPrefix(c, []byte("--- ")):
		p.startFile(ln, c[4:], false)
	case bytes.HasPrefix(c, []byte("+++ ")):
		p.set.warnf(ln.Num, "target filename appears before source filename, swapping")
		p.startFile(ln, c[4:], true)
	case isHeaderStart(c):
		if headerHasStart(p.header) {
			// a new file block begins before the previous header was
			// consumed; the stale header is discarded
			p.header = p.header[:0]
		}
		p.header = append(p.header, bytes.Clone(ln.Text))
	default:
		p.header = append(p.header, bytes.Clone(ln.Text))
	}
	return false
}

func (p *parser) startFile(ln lineio.Line, name []byte, swapped bool) {
	p.cur = &FilePatch{Header: p.header}
	p.header = nil
	p.headTerm = bytes.Clone(lineio.Terminator(ln.Text))
	p.termWarned = false
	p.skipToHunk = false
	if swapped {
		p.cur.Target = bytes.Clone(name)
		p.state = stateExpectSwappedSource
	} else {
		p.cur.Source = bytes.Clone(name)
		p.state = stateExpectTarget
	}
}

func (p *parser) stepExpectTarget(ln lineio.Line, c []byte) bool {
	switch {
	case bytes.HasPrefix(c, []byte("+++ ")):
		p.cur.Target = bytes.Clone(c[4:])
		p.state = stateHunkSeek
	case bytes.HasPrefix(c, []byte("--- ")):
		p.set.warnf(ln.Num, "duplicate source filename line, taking the last")
		p.cur.Source = bytes.Clone(c[4:])
	default:
		p.dropCur(ln.Num, "source filename not followed by target filename")
		return true
	}
	return false
}

func (p *parser) stepExpectSwappedSource(ln lineio.Line, c []byte) bool {
	switch {
	case bytes.HasPrefix(c, []byte("--- ")):
		p.cur.Source = bytes.Clone(c[4:])
		p.state = stateHunkSeek
	case bytes.HasPrefix(c, []byte("+++ ")):
		p.set.warnf(ln.Num, "duplicate target filename line, taking the last")
		p.cur.Target = bytes.Clone(c[4:])
	default:
		p.dropCur(ln.Num, "swapped target filename not followed by source filename")
		return true
	}
	return false
}

func (p *parser) stepHunkSeek(ln lineio.Line, c []byte) bool {
	switch {
	case bytes.HasPrefix(c, []byte("@@")):
		if h, ok := p.parseHunkHeader(c); ok {
			p.hunkLine = ln.Num
			p.beginHunk(h)
		} else {
			p.set.warnf(ln.Num, "malformed hunk header %q, seeking next hunk", c)
			p.skipToHunk = true
		}
	case bytes.HasPrefix(c, []byte("--- ")):
		if len(p.cur.Hunks) > 0 {
			p.closeFile()
			return true
		}
		// duplicated ---/+++ pair before the first hunk, last pair wins
		p.set.warnf(ln.Num, "duplicate filename pair before first hunk, taking the last")
		p.cur.Source = bytes.Clone(c[4:])
		p.state = stateExpectTarget
	case bytes.HasPrefix(c, []byte("+++ ")):
		p.set.warnf(ln.Num, "duplicate target filename line, taking the last")
		p.cur.Target = bytes.Clone(c[4:])
	default:
		if p.skipToHunk {
			return false
		}
		if len(p.cur.Hunks) > 0 {
			p.closeFile()
			return true
		}
		p.dropCur(ln.Num, "expected hunk header after filenames")
		return true
	}
	return false
}

func (p *parser) beginHunk(h *Hunk) {
	p.hunk = h
	p.srcNeed = h.LinesSrc
	p.tgtNeed = h.LinesTgt
	p.srcNoNL = false
	p.tgtNoNL = false
	p.lastPrefix = 0
	p.skipToHunk = false
	if p.srcNeed == 0 && p.tgtNeed == 0 {
		p.finishHunk()
		return
	}
	p.state = stateHunkBody
}

func (p *parser) parseHunkHeader(c []byte) (*Hunk, bool) {
	m := hunkHeaderRegexp.FindSubmatch(c)
	if m == nil {
		return nil, false
	}
	num := func(b []byte, def int) (int, bool) {
		if len(b) == 0 {
			return def, true
		}
		n, err := strconv.Atoi(string(b))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	h := &Hunk{}
	var ok bool
	if h.StartSrc, ok = num(m[1], 1); !ok {
		return nil, false
	}
	if h.LinesSrc, ok = num(m[2], 1); !ok {
		return nil, false
	}
	if h.StartTgt, ok = num(m[3], 1); !ok {
		return nil, false
	}
	if h.LinesTgt, ok = num(m[4], 1); !ok {
		return nil, false
	}
	h.Desc = bytes.Clone(m[5])
	return h, true
}

func (p *parser) stepHunkBody(ln lineio.Line, c []byte) bool {
	if !p.termWarned {
		bt := lineio.Terminator(ln.Text)
		if len(bt) > 0 && len(p.headTerm) > 0 && !bytes.Equal(bt, p.headTerm) {
			p.set.warnf(ln.Num, "line ending differs between file header and hunk body")
			p.termWarned = true
		}
	}
	if len(c) == 0 {
		// mailers strip the leading space of context lines; an empty
		// line inside a body stands for an empty context line
		p.set.warnf(ln.Num, "blank line inside hunk body treated as context")
		raw := append([]byte(" "), bytes.Clone(ln.Text)...)
		p.hunk.Text = append(p.hunk.Text, raw)
		p.srcNeed--
		p.tgtNeed--
		p.lastPrefix = ' '
		p.endBodyLineMaybe()
		return false
	}
	switch c[0] {
	case ' ':
		p.hunk.Text = append(p.hunk.Text, bytes.Clone(ln.Text))
		p.srcNeed--
		p.tgtNeed--
	case '-':
		p.hunk.Text = append(p.hunk.Text, bytes.Clone(ln.Text))
		p.srcNeed--
	case '+':
		p.hunk.Text = append(p.hunk.Text, bytes.Clone(ln.Text))
		p.tgtNeed--
	case '\\':
		p.attachMarker(ln)
		return false
	default:
		p.hunk.Invalid = true
		p.set.warnf(ln.Num, "hunk body ended before declared counts were satisfied")
		p.finishHunk()
		return true
	}
	if p.srcNeed < 0 || p.tgtNeed < 0 {
		p.hunk.Invalid = true
		p.set.warnf(ln.Num, "hunk body exceeds declared counts")
		p.finishHunk()
		return false
	}
	p.lastPrefix = c[0]
	p.endBodyLineMaybe()
	return false
}

// attachMarker records a "\ No newline at end of file" line against the
// preceding body line. It does not count toward either side's length
// and may legally appear once per side.
func (p *parser) attachMarker(ln lineio.Line) {
	if len(p.hunk.Text) == 0 {
		p.set.warnf(ln.Num, "no-newline marker with no preceding body line")
		return
	}
	switch p.lastPrefix {
	case '-':
		if p.srcNoNL {
			p.set.warnf(ln.Num, "multiple no-newline markers on source side")
		}
		p.srcNoNL = true
	case '+':
		if p.tgtNoNL {
			p.set.warnf(ln.Num, "multiple no-newline markers on target side")
		}
		p.tgtNoNL = true
	default:
		if p.srcNoNL || p.tgtNoNL {
			p.set.warnf(ln.Num, "multiple no-newline markers in hunk")
		}
		p.srcNoNL = true
		p.tgtNoNL = true
	}
	p.hunk.Text = append(p.hunk.Text, bytes.Clone(ln.Text))
}

func (p *parser) endBodyLineMaybe() {
	if p.srcNeed <= 0 && p.tgtNeed <= 0 {
		p.finishHunk()
	}
}

func (p *parser) finishHunk() {
	if n := len(p.cur.Hunks); n > 0 {
		prev := p.cur.Hunks[n-1]
		if p.hunk.StartSrc < prev.StartSrc+prev.LinesSrc {
			p.set.warnf(p.hunkLine, "hunk overlaps previous hunk in source range")
			p.hunk.Invalid = true
		}
	}
	p.cur.Hunks = append(p.cur.Hunks, p.hunk)
	p.hunk = nil
	p.state = stateAfterHunk
}

func (p *parser) stepAfterHunk(ln lineio.Line, c []byte) bool {
	switch {
	case len(c) == 0:
		// blank separator between hunks
	case c[0] == '\\':
		last := p.cur.Hunks[len(p.cur.Hunks)-1]
		last.Text = append(last.Text, bytes.Clone(ln.Text))
	case bytes.HasPrefix(c, []byte("@@")):
		if h, ok := p.parseHunkHeader(c); ok {
			p.hunkLine = ln.Num
			p.beginHunk(h)
		} else {
			p.set.warnf(ln.Num, "malformed hunk header %q, seeking next hunk", c)
			p.skipToHunk = true
			p.state = stateHunkSeek
		}
	case bytes.HasPrefix(c, []byte("--- ")):
		p.closeFile()
		return true
	default:
		p.closeFile()
		return true
	}
	return false
}

func (p *parser) closeFile() {
	for _, h := range p.cur.Hunks {
		for _, raw := range h.Text {
			if len(raw) == 0 {
				continue
			}
			switch raw[0] {
			case '+':
				p.cur.Added++
			case '-':
				p.cur.Removed++
			}
		}
	}
	p.set.Items = append(p.set.Items, p.cur)
	p.cur = nil
	p.state = stateHeader
}

func (p *parser) dropCur(line int, msg string) {
	p.set.errorf(line, msg)
	p.cur = nil
	p.state = stateHeader
}

func (p *parser) finish(eofLine int) {
	switch p.state {
	case stateHunkBody:
		if p.srcNeed > 0 || p.tgtNeed > 0 {
			p.hunk.Invalid = true
			p.set.warnf(eofLine, "hunk body truncated at end of input")
		}
		p.finishHunk()
		p.closeFile()
	case stateAfterHunk:
		p.closeFile()
	case stateExpectTarget, stateExpectSwappedSource:
		p.dropCur(eofLine, "unterminated filename header at end of input")
	case stateHunkSeek:
		if len(p.cur.Hunks) > 0 {
			p.closeFile()
		} else {
			p.dropCur(eofLine, "file patch without hunks")
		}
	case stateHeader:
		if len(p.set.Items) > 0 && hasNonBlank(p.header) {
			p.set.warnf(eofLine, "trailing garbage after last hunk")
		}
	}
}

func isHeaderStart(c []byte) bool {
	for _, prefix := range headerStarts {
		if bytes.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func headerHasStart(header [][]byte) bool {
	for _, raw := range header {
		if isHeaderStart(lineio.Content(raw)) {
			return true
		}
	}
	return false
}

func hasNonBlank(lines [][]byte) bool {
	for _, raw := range lines {
		if len(lineio.Content(raw)) > 0 {
			return true
		}
	}
	return false
}
