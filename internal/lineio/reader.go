// Package lineio provides a line iterator over raw patch bytes that
// preserves the exact terminator of every line. Patch application must
// reproduce files byte-for-byte, so lines are never re-terminated or
// trimmed here; a line carries its own `\n`, `\r\n`, `\r`, or nothing
// at end of input.
package lineio

import "bytes"

// Line is one physical line of the input stream.
type Line struct {
	Num  int    // 1-based line number
	Text []byte // raw bytes including the terminator, if any
	EOF  bool   // set on the final tick, which carries an empty Text
}

// Scanner walks a byte buffer line by line. After the last real line it
// yields exactly one EOF tick with empty Text, then reports exhaustion.
type Scanner struct {
	data []byte
	off  int
	num  int
	done bool
}

// NewScanner returns a Scanner over data. The buffer is not copied;
// callers must not mutate it while scanning.
func NewScanner(data []byte) *Scanner {
	return &Scanner{data: data}
}

// Next returns the next line. The second return value is false once the
// EOF tick has already been delivered.
func (s *Scanner) Next() (Line, bool) {
	if s.done {
		return Line{}, false
	}
	if s.off >= len(s.data) {
		s.done = true
		s.num++
		return Line{Num: s.num, Text: nil, EOF: true}, true
	}
	end := s.off
	for end < len(s.data) {
		c := s.data[end]
		if c == '\n' {
			end++
			break
		}
		if c == '\r' {
			// \r\n is a single terminator, a bare \r ends the line too
			if end+1 < len(s.data) && s.data[end+1] == '\n' {
				end += 2
			} else {
				end++
			}
			break
		}
		end++
	}
	s.num++
	line := Line{Num: s.num, Text: s.data[s.off:end]}
	s.off = end
	return line, true
}

// Split breaks data into terminator-preserving lines without the EOF tick.
// Splitting then concatenating is the identity on any input.
func Split(data []byte) [][]byte {
	var lines [][]byte
	sc := NewScanner(data)
	for {
		ln, ok := sc.Next()
		if !ok || ln.EOF {
			break
		}
		lines = append(lines, ln.Text)
	}
	return lines
}

// Terminator returns the line-ending bytes of line, which may be empty
// for the last line of a file with no trailing newline.
func Terminator(line []byte) []byte {
	if bytes.HasSuffix(line, []byte("\r\n")) {
		return line[len(line)-2:]
	}
	if len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		return line[len(line)-1:]
	}
	return nil
}

// Content returns line without its terminator.
func Content(line []byte) []byte {
	return line[:len(line)-len(Terminator(line))]
}

// DominantTerminator reports the most common terminator across lines,
// defaulting to "\n" when the input has none at all.
func DominantTerminator(lines [][]byte) []byte {
	var lf, crlf, cr int
	for _, ln := range lines {
		switch {
		case bytes.HasSuffix(ln, []byte("\r\n")):
			crlf++
		case bytes.HasSuffix(ln, []byte("\n")):
			lf++
		case bytes.HasSuffix(ln, []byte("\r")):
			cr++
		}
	}
	switch {
	case crlf >= lf && crlf >= cr && crlf > 0:
		return []byte("\r\n")
	case cr > lf && cr > crlf:
		return []byte("\r")
	default:
		return []byte("\n")
	}
}
