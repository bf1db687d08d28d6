package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gitPatch = "diff --git a/src/x.py b/src/x.py\n" +
	"index 1111111..2222222 100644\n" +
	"--- a/src/x.py\n" +
	"+++ b/src/x.py\n" +
	"@@ -1 +1 @@\n" +
	"-x\n" +
	"+y\n"

const hgPatch = "diff -r 000000000000 doc/hacks.txt\n" +
	"--- a/doc/hacks.txt\n" +
	"+++ b/doc/hacks.txt\n" +
	"@@ -1 +1 @@\n" +
	"-x\n" +
	"+y\n"

const svnPatch = "Index: doc/README\n" +
	"===================================================================\n" +
	"--- doc/README\t(revision 4)\n" +
	"+++ doc/README\t(working copy)\n" +
	"@@ -1 +1 @@\n" +
	"-x\n" +
	"+y\n"

func TestDetectDialects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Dialect
	}{
		{"git header", gitPatch, DialectGit},
		{"git bare a/ b/ paths", simplePatch, DialectGit},
		{"mercurial", hgPatch, DialectMercurial},
		{"subversion", svnPatch, DialectSubversion},
		{"plain", "--- t\n+++ t\n@@ -1 +1 @@\n-x\n+y\n", DialectPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := mustParse(t, tt.input)
			require.Len(t, ps.Items, 1)
			assert.Equal(t, tt.want, ps.Items[0].Dialect)
			assert.Equal(t, tt.want, ps.Dialect)
		})
	}
}

func TestDetectMixedSet(t *testing.T) {
	ps := mustParse(t, gitPatch+svnPatch)
	require.Len(t, ps.Items, 2)
	assert.Equal(t, DialectGit, ps.Items[0].Dialect)
	assert.Equal(t, DialectSubversion, ps.Items[1].Dialect)
	assert.Equal(t, DialectMixed, ps.Dialect)
}

func TestDetectMajorityTagsUnlabeledItems(t *testing.T) {
	// two git items and one unlabeled block: the unlabeled block
	// inherits the majority dialect
	bare := "--- z\n+++ z\n@@ -1 +1 @@\n-x\n+y\n"
	other := "diff --git a/w b/w\n--- a/w\n+++ b/w\n@@ -1 +1 @@\n-x\n+y\n"
	ps := mustParse(t, gitPatch+other+bare)
	require.Len(t, ps.Items, 3)
	assert.Equal(t, DialectGit, ps.Items[2].Dialect)
	assert.Equal(t, DialectGit, ps.Dialect)
}

func TestNormalizeGitPrefixes(t *testing.T) {
	ps := mustParse(t, gitPatch)
	fp := ps.Items[0]
	assert.Equal(t, "src/x.py", string(fp.Source))
	assert.Equal(t, "src/x.py", string(fp.Target))
	assert.Equal(t, "src/x.py", string(fp.Name()))
}

func TestNormalizeBarePrefixesKept(t *testing.T) {
	// without a header signal the a/ b/ prefixes stay on the names so
	// the usual strip=1 still lands on the right file
	ps := mustParse(t, simplePatch)
	assert.Equal(t, DialectGit, ps.Items[0].Dialect)
	assert.Equal(t, "a/t", string(ps.Items[0].Source))
	assert.Equal(t, "b/t", string(ps.Items[0].Target))
}

func TestNormalizeTimestampsAndQuotes(t *testing.T) {
	input := "--- \"dir/old name.txt\"\t2011-10-10 10:20:30.000000000 +0100\n" +
		"+++ \"dir/old name.txt\"\t2011-10-10 10:20:35.000000000 +0100\n" +
		"@@ -1 +1 @@\n" +
		"-x\n" +
		"+y\n"
	ps := mustParse(t, input)
	fp := ps.Items[0]
	assert.Equal(t, "dir/old name.txt", string(fp.Source))
	assert.Equal(t, "dir/old name.txt", string(fp.Target))
}

func TestNormalizeSubversionLeavesPaths(t *testing.T) {
	ps := mustParse(t, svnPatch)
	fp := ps.Items[0]
	assert.Equal(t, "doc/README", string(fp.Source))
	assert.Equal(t, "doc/README", string(fp.Target))
}

func TestDevNullSides(t *testing.T) {
	create := "diff --git a/new.txt b/new.txt\n" +
		"--- /dev/null\n" +
		"+++ b/new.txt\n" +
		"@@ -0,0 +1 @@\n" +
		"+hello\n"
	ps := mustParse(t, create)
	fp := ps.Items[0]
	assert.True(t, fp.IsCreate())
	assert.False(t, fp.IsDelete())
	assert.Equal(t, "new.txt", string(fp.Name()))

	remove := "diff --git a/old.txt b/old.txt\n" +
		"--- a/old.txt\n" +
		"+++ /dev/null\n" +
		"@@ -1 +0,0 @@\n" +
		"-bye\n"
	ps = mustParse(t, remove)
	fp = ps.Items[0]
	assert.True(t, fp.IsDelete())
	assert.Equal(t, "old.txt", string(fp.Name()))
}

func TestHunkReversed(t *testing.T) {
	ps := mustParse(t, simplePatch)
	h := ps.Items[0].Hunks[0]
	r := h.Reversed()

	assert.Equal(t, h.StartTgt, r.StartSrc)
	assert.Equal(t, h.LinesTgt, r.LinesSrc)
	assert.Equal(t, "Hello Python Patch!", string(r.SourceBody()[0].Content))
	assert.Equal(t, "Hello World", string(r.TargetBody()[0].Content))

	// reversing twice restores the original
	assert.Equal(t, h, r.Reversed())
}
