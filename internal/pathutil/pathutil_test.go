package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAbs(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/etc/passwd", true},
		{"\\\\server\\share", true},
		{"\\windows", true},
		{"C:/Users", true},
		{"c:\\Users", true},
		{"C:file", false},
		{"relative/path", false},
		{"./x", false},
		{"", false},
		{"1:/x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAbs([]byte(tt.path)), "path %q", tt.path)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a/b/c", "a/b/c"},
		{"a//b///c", "a/b/c"},
		{"a\\b\\c", "a/b/c"},
		{"a/./b", "a/b"},
		{"a/b/../c", "a/c"},
		{"a/b/..", "a"},
		{"../a", "../a"},
		{"../../a", "../../a"},
		{"a/../..", ".."},
		{"/a/../b", "/b"},
		{"/../a", "/a"},
		{".", "."},
		{"a/..", "."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(Normalize([]byte(tt.in))), "path %q", tt.in)
	}
}

func TestStripComponents(t *testing.T) {
	tests := []struct {
		in      string
		n       int
		want    string
		wantErr bool
	}{
		{"a/b/c", 0, "a/b/c", false},
		{"a/b/c", 1, "b/c", false},
		{"a/b/c", 2, "c", false},
		{"a/b/c", 3, "", true},
		{"a", 1, "", true},
		{"a\\b\\c", 1, "b/c", false},
	}
	for _, tt := range tests {
		got, err := StripComponents([]byte(tt.in), tt.n)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrTooFewComponents)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}

func TestSecureJoin(t *testing.T) {
	got, err := SecureJoin("/work", []byte("src/x.py"), false)
	assert.NoError(t, err)
	assert.Equal(t, "/work/src/x.py", got)

	got, err = SecureJoin("", []byte("src/x.py"), false)
	assert.NoError(t, err)
	assert.Equal(t, "src/x.py", got)

	_, err = SecureJoin("/work", []byte("/etc/passwd"), false)
	assert.ErrorIs(t, err, ErrAbsolute)

	got, err = SecureJoin("/work", []byte("/etc/passwd"), true)
	assert.NoError(t, err)
	assert.Equal(t, "/etc/passwd", got)

	_, err = SecureJoin("/work", []byte("../outside"), false)
	assert.ErrorIs(t, err, ErrEscapesRoot)

	_, err = SecureJoin("/work", []byte("a/../../outside"), false)
	assert.ErrorIs(t, err, ErrEscapesRoot)
}
