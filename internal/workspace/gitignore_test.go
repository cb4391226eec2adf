package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitignoreMatcher_SimplePatterns(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		path     string
		isDir    bool
		expected bool
	}{
		{name: "exact filename match", pattern: "foo.txt", path: "foo.txt", isDir: false, expected: true},
		{name: "exact filename no match", pattern: "foo.txt", path: "bar.txt", isDir: false, expected: false},
		{name: "filename in subdir", pattern: "foo.txt", path: "src/foo.txt", isDir: false, expected: true},
		{name: "*.log matches nested", pattern: "*.log", path: "logs/error.log", isDir: false, expected: true},
		{name: "*.log no match .txt", pattern: "*.log", path: "error.txt", isDir: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newGitignoreMatcher()
			m.addPattern(tt.pattern, "")
			assert.Equal(t, tt.expected, m.match(tt.path, tt.isDir))
		})
	}
}

func TestGitignoreMatcher_DoubleStarPatterns(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		path     string
		isDir    bool
		expected bool
	}{
		{name: "**/node_modules nested", pattern: "**/node_modules", path: "packages/foo/node_modules", isDir: true, expected: true},
		{name: "logs/** matches nested", pattern: "logs/**", path: "logs/2024/01/error.log", isDir: false, expected: true},
		{name: "logs/** no match outside", pattern: "logs/**", path: "src/logs/error.log", isDir: false, expected: false},
		{name: "**/*.log deep nested", pattern: "**/*.log", path: "a/b/c/d/error.log", isDir: false, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newGitignoreMatcher()
			m.addPattern(tt.pattern, "")
			assert.Equal(t, tt.expected, m.match(tt.path, tt.isDir))
		})
	}
}

func TestGitignoreMatcher_RootedPatterns(t *testing.T) {
	m := newGitignoreMatcher()
	m.addPattern("/build", "")

	assert.True(t, m.match("build", true))
	assert.False(t, m.match("src/build", true))
}

func TestGitignoreMatcher_DirOnlyPattern(t *testing.T) {
	m := newGitignoreMatcher()
	m.addPattern("dist/", "")

	assert.True(t, m.match("dist", true))
	assert.False(t, m.match("dist", false))
}

func TestGitignoreMatcher_Negation(t *testing.T) {
	m := newGitignoreMatcher()
	m.addPattern("*.log", "")
	m.addPattern("!important.log", "")

	assert.True(t, m.match("error.log", false))
	assert.False(t, m.match("important.log", false))
}

func TestGitignoreMatcher_CommentsAndBlankLinesIgnored(t *testing.T) {
	m := newGitignoreMatcher()
	m.addPattern("# a comment", "")
	m.addPattern("", "")
	m.addPattern("*.tmp", "")

	assert.False(t, m.match("not-a-comment", false))
	assert.True(t, m.match("scratch.tmp", false))
}

func TestGitignoreMatcher_EscapedHashIsALiteralPattern(t *testing.T) {
	m := newGitignoreMatcher()
	m.addPattern(`\#literal`, "")

	assert.True(t, m.match("#literal", false))
}

func TestGitignoreMatcher_AddFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("*.log\nbuild/\n"), 0o644))

	m := newGitignoreMatcher()
	require.NoError(t, m.addFromFile(path, ""))

	assert.True(t, m.match("error.log", false))
	assert.True(t, m.match("build", true))
}

func TestGitignoreMatcher_AddFromFile_MissingFileErrors(t *testing.T) {
	m := newGitignoreMatcher()
	err := m.addFromFile(filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}

func TestGitignoreMatcher_NestedBaseScopesPatterns(t *testing.T) {
	m := newGitignoreMatcher()
	m.addPattern("*.log", "sub")

	assert.True(t, m.match("sub/error.log", false))
	assert.False(t, m.match("error.log", false))
}
