// Package pathutil implements path handling for patch filenames. Patch
// files may name paths from any platform, so both separator styles are
// honored regardless of the host OS, and all operations work on byte
// strings because filenames inside a patch are not required to be valid
// UTF-8.
package pathutil

import (
	"bytes"
	"errors"
)

var (
	// ErrTooFewComponents is returned by StripComponents when the path
	// has no more components than requested, so nothing would remain.
	ErrTooFewComponents = errors.New("pathutil: not enough path components to strip")
	// ErrEscapesRoot is returned by SecureJoin for paths that resolve
	// above the root directory.
	ErrEscapesRoot = errors.New("pathutil: path escapes root directory")
	// ErrAbsolute is returned by SecureJoin for absolute paths.
	ErrAbsolute = errors.New("pathutil: absolute path not permitted")
)

// IsAbs reports whether p is absolute on any supported platform:
// a leading slash or backslash, a Windows drive spec like `C:\`, or a
// UNC path starting with two backslashes.
func IsAbs(p []byte) bool {
	if len(p) == 0 {
		return false
	}
	if p[0] == '/' || p[0] == '\\' {
		return true
	}
	if len(p) >= 3 && isDriveLetter(p[0]) && p[1] == ':' && (p[2] == '/' || p[2] == '\\') {
		return true
	}
	return false
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Normalize maps backslashes to slashes, collapses repeated separators,
// and resolves `.` and `..` components. A leading `..` that cannot be
// resolved is preserved; rejecting such paths is the caller's decision
// (see SecureJoin).
func Normalize(p []byte) []byte {
	if len(p) == 0 {
		return p
	}
	abs := IsAbs(p)
	var out [][]byte
	for _, comp := range Components(p) {
		switch {
		case len(comp) == 0 || bytes.Equal(comp, []byte(".")):
			// skip
		case bytes.Equal(comp, []byte("..")):
			if n := len(out); n > 0 && !bytes.Equal(out[n-1], []byte("..")) {
				out = out[:n-1]
			} else if !abs {
				out = append(out, comp)
			}
		default:
			out = append(out, comp)
		}
	}
	joined := bytes.Join(out, []byte("/"))
	if abs {
		return append([]byte("/"), joined...)
	}
	if len(joined) == 0 {
		return []byte(".")
	}
	return joined
}

// Components splits p on both separator styles, dropping empty leading
// parts produced by absolute prefixes.
func Components(p []byte) [][]byte {
	norm := bytes.ReplaceAll(p, []byte("\\"), []byte("/"))
	parts := bytes.Split(norm, []byte("/"))
	var comps [][]byte
	for _, part := range parts {
		if len(part) > 0 {
			comps = append(comps, part)
		}
	}
	return comps
}

// StripComponents removes the first n separator-delimited components of
// p. Stripping as many components as the path has, or more, is an error.
func StripComponents(p []byte, n int) ([]byte, error) {
	if n <= 0 {
		return p, nil
	}
	comps := Components(p)
	if len(comps) <= n {
		return nil, ErrTooFewComponents
	}
	return bytes.Join(comps[n:], []byte("/")), nil
}

// SecureJoin normalizes p and resolves it relative to root. Unlike the
// pure Normalize, it rejects absolute paths (unless allowAbsolute) and
// paths whose `..` components would escape the root.
func SecureJoin(root string, p []byte, allowAbsolute bool) (string, error) {
	norm := Normalize(p)
	if IsAbs(norm) {
		if !allowAbsolute {
			return "", ErrAbsolute
		}
		return string(norm), nil
	}
	if bytes.Equal(norm, []byte("..")) || bytes.HasPrefix(norm, []byte("../")) {
		return "", ErrEscapesRoot
	}
	if root == "" {
		return string(norm), nil
	}
	return root + "/" + string(norm), nil
}
