package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collectWalk(t *testing.T, w *Walker, opts Options) []Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := w.Walk(ctx, opts)
	require.NoError(t, err)

	var results []Result
	for r := range ch {
		results = append(results, r)
	}
	return results
}

func pathsOf(results []Result) []string {
	var paths []string
	for _, r := range results {
		if r.File != nil {
			paths = append(paths, filepath.ToSlash(r.File.Path))
		}
	}
	return paths
}

func TestWalk_DiscoversFilesRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "pkg/util.go", "package pkg\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root})

	assert.ElementsMatch(t, []string{"main.go", "pkg/util.go"}, pathsOf(results))
}

func TestWalk_ExcludesDefaultDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {}\n")
	writeFile(t, root, "vendor/lib/lib.go", "package lib\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root})

	assert.ElementsMatch(t, []string{"main.go"}, pathsOf(results))
}

func TestWalk_ExcludesSensitiveFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, ".env", "SECRET=1\n")
	writeFile(t, root, "id_rsa", "fake-key\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root})

	assert.ElementsMatch(t, []string{"main.go"}, pathsOf(results))
}

func TestWalk_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "scratch.tmp", "junk\n")
	writeFile(t, root, ".gitignore", "*.tmp\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root, RespectGitignore: true})

	assert.ElementsMatch(t, []string{"main.go", ".gitignore"}, pathsOf(results))
}

func TestWalk_GitignoreDisabledKeepsIgnoredFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "scratch.tmp", "junk\n")
	writeFile(t, root, ".gitignore", "*.tmp\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root, RespectGitignore: false})

	assert.Contains(t, pathsOf(results), "scratch.tmp")
}

func TestWalk_NestedGitignoreScopesToItsSubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/keep.go", "package sub\n")
	writeFile(t, root, "sub/drop.log", "log\n")
	writeFile(t, root, "sub/.gitignore", "*.log\n")
	writeFile(t, root, "drop.log", "log at root, not ignored\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root, RespectGitignore: true})

	paths := pathsOf(results)
	assert.Contains(t, paths, "sub/keep.go")
	assert.Contains(t, paths, "drop.log")
	assert.NotContains(t, paths, "sub/drop.log")
}

func TestWalk_SkipsFilesOverMaxSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.go", "package main\n")
	writeFile(t, root, "big.go", "package main\n// filler\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root, MaxFileSize: 5})

	assert.Empty(t, pathsOf(results))
}

func TestWalk_SkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	binPath := filepath.Join(root, "data.bin")
	require.NoError(t, os.WriteFile(binPath, []byte{0x00, 0x01, 0x02, 0xff}, 0o644))

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root})

	assert.ElementsMatch(t, []string{"main.go"}, pathsOf(results))
}

func TestWalk_HonorsIncludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "README.md", "# hello\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root, IncludePatterns: []string{"*.md"}})

	assert.ElementsMatch(t, []string{"README.md"}, pathsOf(results))
}

func TestWalk_HonorsCustomExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "fixtures/data.go", "package fixtures\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root, ExcludePatterns: []string{"fixtures/**"}})

	assert.ElementsMatch(t, []string{"main.go"}, pathsOf(results))
}

func TestWalk_DetectsLanguageAndKind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "README.md", "# hello\n")
	writeFile(t, root, "config.yaml", "key: value\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root})

	byPath := map[string]*FileInfo{}
	for _, r := range results {
		if r.File != nil {
			byPath[filepath.ToSlash(r.File.Path)] = r.File
		}
	}

	require.Contains(t, byPath, "main.go")
	assert.Equal(t, "go", byPath["main.go"].Language)
	assert.Equal(t, FileKindCode, byPath["main.go"].Kind)

	require.Contains(t, byPath, "README.md")
	assert.Equal(t, FileKindMarkdown, byPath["README.md"].Kind)

	require.Contains(t, byPath, "config.yaml")
	assert.Equal(t, FileKindConfig, byPath["config.yaml"].Kind)
}

func TestWalk_FlagsGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "gen.go", "// Code generated by protoc-gen-go. DO NOT EDIT.\npackage pb\n")

	w, err := NewWalker()
	require.NoError(t, err)

	results := collectWalk(t, w, Options{RootDir: root})

	byPath := map[string]*FileInfo{}
	for _, r := range results {
		if r.File != nil {
			byPath[filepath.ToSlash(r.File.Path)] = r.File
		}
	}

	require.Contains(t, byPath, "main.go")
	assert.False(t, byPath["main.go"].IsGenerated)

	require.Contains(t, byPath, "gen.go")
	assert.True(t, byPath["gen.go"].IsGenerated)
}

func TestWalk_ErrorsOnNonDirectoryRoot(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	w, err := NewWalker()
	require.NoError(t, err)

	_, err = w.Walk(context.Background(), Options{RootDir: filePath})
	assert.Error(t, err)
}

func TestWalk_RespectsContextCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, root, filepath.Join("many", filepath.Base(t.TempDir())+".go"), "package many\n")
	}

	w, err := NewWalker()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := w.Walk(ctx, Options{RootDir: root})
	require.NoError(t, err)

	for range ch {
	}
}

func TestInvalidateGitignoreCache_ForcesReparse(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "scratch.tmp", "junk\n")
	writeFile(t, root, ".gitignore", "*.tmp\n")

	w, err := NewWalker()
	require.NoError(t, err)

	first := collectWalk(t, w, Options{RootDir: root, RespectGitignore: true})
	assert.NotContains(t, pathsOf(first), "scratch.tmp")

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(""), 0o644))
	w.InvalidateGitignoreCache()

	second := collectWalk(t, w, Options{RootDir: root, RespectGitignore: true})
	assert.Contains(t, pathsOf(second), "scratch.tmp")
}
