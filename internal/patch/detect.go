package patch

import (
	"bytes"

	"github.com/sevigo/patchwork/internal/lineio"
)

// detect runs after parsing: it labels each file patch with a dialect,
// derives the set-wide dialect, and canonicalizes filenames.
func detect(ps *PatchSet) {
	if len(ps.Items) == 0 {
		return
	}
	// explicit[i] records whether the dialect came from a header
	// signal; only those are trusted enough to drop a/ b/ prefixes
	explicit := make([]bool, len(ps.Items))
	counts := make(map[Dialect]int)
	for i, fp := range ps.Items {
		fp.Source = normalizeName(fp.Source)
		fp.Target = normalizeName(fp.Target)
		fp.Dialect = detectDialect(fp.Header)
		explicit[i] = fp.Dialect != DialectPlain
		if fp.Dialect == DialectPlain && hasGitPrefixes(fp) {
			// bare a/ b/ paths are how git emits patches without
			// headers; label the dialect but keep the paths intact
			fp.Dialect = DialectGit
		}
		counts[fp.Dialect]++
	}

	// an unlabeled item inside a predominantly git/hg/svn set inherits
	// the majority dialect
	majority, n := DialectPlain, 0
	for d, c := range counts {
		if d != DialectPlain && c > n {
			majority, n = d, c
		}
	}
	if majority != DialectPlain && n*2 > len(ps.Items) {
		for _, fp := range ps.Items {
			if fp.Dialect == DialectPlain {
				fp.Dialect = majority
			}
		}
	}

	ps.Dialect = ps.Items[0].Dialect
	for _, fp := range ps.Items[1:] {
		if fp.Dialect != ps.Dialect {
			ps.Dialect = DialectMixed
			break
		}
	}

	for i, fp := range ps.Items {
		if explicit[i] && (fp.Dialect == DialectGit || fp.Dialect == DialectMercurial) {
			stripVCSPrefixes(fp)
		}
	}
}

// detectDialect picks the strongest header signal present, in priority
// order git > mercurial > subversion > plain.
func detectDialect(header [][]byte) Dialect {
	var git, hg, svn bool
	for _, raw := range header {
		c := lineio.Content(raw)
		switch {
		case bytes.HasPrefix(c, []byte("diff --git ")),
			bytes.HasPrefix(c, []byte("rename from ")),
			bytes.HasPrefix(c, []byte("rename to ")):
			git = true
		case bytes.HasPrefix(c, []byte("# HG changeset patch")),
			bytes.HasPrefix(c, []byte("diff -r ")):
			hg = true
		case bytes.HasPrefix(c, []byte("Index: ")):
			svn = true
		}
	}
	switch {
	case git:
		return DialectGit
	case hg:
		return DialectMercurial
	case svn:
		return DialectSubversion
	default:
		return DialectPlain
	}
}

// hasGitPrefixes reports whether the normalized filename pair follows
// git's a/ b/ convention.
func hasGitPrefixes(fp *FilePatch) bool {
	srcOK := bytes.HasPrefix(fp.Source, []byte("a/")) || bytes.Equal(fp.Source, DevNull)
	tgtOK := bytes.HasPrefix(fp.Target, []byte("b/")) || bytes.Equal(fp.Target, DevNull)
	return srcOK && tgtOK && !bytes.Equal(fp.Source, fp.Target)
}

// normalizeName strips the legacy tab-delimited timestamp and the
// surrounding quotes, and canonicalizes the /dev/null sentinel.
func normalizeName(name []byte) []byte {
	if i := bytes.IndexByte(name, '\t'); i >= 0 {
		name = name[:i]
	}
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		name = name[1 : len(name)-1]
	}
	if bytes.Equal(name, DevNull) {
		return DevNull
	}
	return name
}

// stripVCSPrefixes drops the leading a/ and b/ only when both sides
// carry their prefix; a /dev/null side does not block the other.
func stripVCSPrefixes(fp *FilePatch) {
	srcNull := bytes.Equal(fp.Source, DevNull)
	tgtNull := bytes.Equal(fp.Target, DevNull)
	srcPref := !srcNull && bytes.HasPrefix(fp.Source, []byte("a/"))
	tgtPref := !tgtNull && bytes.HasPrefix(fp.Target, []byte("b/"))

	if (srcPref || srcNull) && (tgtPref || tgtNull) && (srcPref || tgtPref) {
		if srcPref {
			fp.Source = fp.Source[2:]
		}
		if tgtPref {
			fp.Target = fp.Target[2:]
		}
	}
}
