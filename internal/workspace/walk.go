package workspace

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FileKind classifies a discovered file for the link extractor.
type FileKind string

const (
	FileKindCode     FileKind = "code"
	FileKindMarkdown FileKind = "markdown"
	FileKindText     FileKind = "text"
	FileKindConfig   FileKind = "config"
)

// FileInfo describes a file discovered during a Walk.
type FileInfo struct {
	Path        string // relative to the walk root
	AbsPath     string
	Size        int64
	ModTime     time.Time
	Kind        FileKind
	Language    string
	IsGenerated bool
}

// Result is delivered on a Walk channel: either a File or an Error, never
// both.
type Result struct {
	File  *FileInfo
	Error error
}

// Options configures a Walk.
type Options struct {
	// RootDir is the directory to walk.
	RootDir string

	// IncludePatterns restricts the walk to matching files (empty = all).
	IncludePatterns []string

	// ExcludePatterns excludes matching files/directories in addition to
	// the built-in defaults.
	ExcludePatterns []string

	// RespectGitignore enables .gitignore parsing, including nested files.
	RespectGitignore bool

	// FollowSymlinks enables following symbolic links (default: false).
	FollowSymlinks bool

	// MaxFileSize is the largest file considered, in bytes (0 = 10MB).
	MaxFileSize int64
}

// DefaultMaxFileSize is used when Options.MaxFileSize is unset.
const DefaultMaxFileSize = 10 * 1024 * 1024

const gitignoreCacheSize = 1000

// Walker discovers files in a project directory, caching parsed
// .gitignore matchers across calls.
type Walker struct {
	gitignoreCache *lru.Cache[string, *gitignoreMatcher]
	cacheMu        sync.RWMutex
}

// NewWalker creates a Walker with a bounded gitignore matcher cache.
func NewWalker() (*Walker, error) {
	cache, err := lru.New[string, *gitignoreMatcher](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}
	return &Walker{gitignoreCache: cache}, nil
}

// Walk streams discovered files on the returned channel, closing it when
// the walk completes or the context is cancelled.
func (w *Walker) Walk(ctx context.Context, opts Options) (<-chan Result, error) {
	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	results := make(chan Result, runtime.NumCPU()*10)

	go func() {
		defer close(results)
		w.walk(ctx, absRoot, opts, maxFileSize, results)
	}()

	return results, nil
}

func (w *Walker) walk(ctx context.Context, absRoot string, opts Options, maxFileSize int64, results chan<- Result) {
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}

		if d.IsDir() {
			if shouldExcludeDir(relPath, opts.ExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}

		if w.shouldExcludeFile(relPath, absRoot, opts) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}

		if fi.Size() > maxFileSize {
			return nil
		}

		head, isBinary := readFileHead(path)
		if isBinary {
			return nil
		}

		language := DetectLanguage(relPath)
		kind := DetectKind(language)

		if len(opts.IncludePatterns) > 0 && !matchesAnyFilePattern(relPath, opts.IncludePatterns) {
			return nil
		}

		file := &FileInfo{
			Path:        relPath,
			AbsPath:     path,
			Size:        fi.Size(),
			ModTime:     fi.ModTime(),
			Kind:        kind,
			Language:    language,
			IsGenerated: isGeneratedFileContent(head),
		}

		select {
		case results <- Result{File: file}:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	if err != nil && err != context.Canceled {
		select {
		case results <- Result{Error: err}:
		case <-ctx.Done():
		}
	}
}

func (w *Walker) shouldExcludeFile(relPath, absRoot string, opts Options) bool {
	baseName := filepath.Base(relPath)

	for _, pattern := range sensitiveFilePatterns {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	for _, pattern := range defaultExcludeFiles {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	for _, pattern := range opts.ExcludePatterns {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}

	if opts.RespectGitignore && w.isGitignored(relPath, absRoot) {
		return true
	}

	return false
}

func (w *Walker) isGitignored(relPath, absRoot string) bool {
	if m := w.getGitignoreMatcher(absRoot, ""); m != nil && m.match(relPath, false) {
		return true
	}

	parts := strings.Split(filepath.Dir(relPath), string(filepath.Separator))
	currentDir := absRoot
	currentBase := ""

	for _, part := range parts {
		if part == "." {
			continue
		}
		currentDir = filepath.Join(currentDir, part)
		if currentBase == "" {
			currentBase = part
		} else {
			currentBase = filepath.Join(currentBase, part)
		}

		if m := w.getGitignoreMatcher(currentDir, currentBase); m != nil && m.match(relPath, false) {
			return true
		}
	}

	return false
}

func (w *Walker) getGitignoreMatcher(dir, base string) *gitignoreMatcher {
	w.cacheMu.RLock()
	m, ok := w.gitignoreCache.Get(dir)
	w.cacheMu.RUnlock()
	if ok {
		return m
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		return nil
	}

	m = newGitignoreMatcher()
	if err := m.addFromFile(gitignorePath, base); err != nil {
		return nil
	}

	w.cacheMu.Lock()
	w.gitignoreCache.Add(dir, m)
	w.cacheMu.Unlock()

	return m
}

// InvalidateGitignoreCache drops every cached matcher, forcing a reparse
// of .gitignore files on the next Walk. Call after a reparse watcher
// observes a .gitignore change.
func (w *Walker) InvalidateGitignoreCache() {
	w.cacheMu.Lock()
	defer w.cacheMu.Unlock()
	w.gitignoreCache.Purge()
}

// readFileHead reads up to 4KB from the start of path and reports whether
// that prefix looks binary (contains a null byte). The returned slice is
// reused for generated-file marker detection so callers only read once.
func readFileHead(path string) (head []byte, isBinary bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return nil, false
	}

	buf = buf[:n]
	return buf, bytes.Contains(buf, []byte{0})
}

var defaultExcludeDirs = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/.aws/**",
	"**/.ssh/**",
}

var defaultExcludeFiles = []string{
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

var sensitiveFilePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*.p12",
	"*.pfx",
	"*credentials*",
	"*secrets*",
	"*password*",
	".netrc",
	".npmrc",
	".pypirc",
	"id_rsa",
	"id_dsa",
	"id_ecdsa",
	"id_ed25519",
}

func shouldExcludeDir(relPath string, extra []string) bool {
	for _, pattern := range defaultExcludeDirs {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	for _, pattern := range extra {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	return false
}

func matchDirPattern(relPath, pattern string) bool {
	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		for _, part := range strings.Split(relPath, string(filepath.Separator)) {
			if part == suffix {
				return true
			}
		}
		return false
	}

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return relPath == prefix || strings.HasPrefix(relPath, prefix+string(filepath.Separator))
	}

	return relPath == pattern || strings.HasPrefix(relPath, pattern+string(filepath.Separator))
}

func matchFilePattern(baseName, relPath, pattern string) bool {
	if strings.HasSuffix(pattern, "/**") && !strings.HasPrefix(pattern, "**/") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return strings.HasPrefix(relPath, prefix+string(filepath.Separator))
	}

	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimPrefix(pattern, "**/")
		if strings.HasPrefix(suffix, "*.") {
			return strings.HasSuffix(baseName, strings.TrimPrefix(suffix, "*"))
		}
		for _, part := range strings.Split(relPath, string(filepath.Separator)) {
			if part == suffix {
				return true
			}
		}
		return false
	}

	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && len(pattern) > 1 {
		middle := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
		return strings.Contains(strings.ToLower(baseName), strings.ToLower(middle))
	}

	if strings.HasSuffix(pattern, "*") && strings.HasPrefix(pattern, ".") {
		return strings.HasPrefix(baseName, strings.TrimSuffix(pattern, "*"))
	}

	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(baseName, strings.TrimPrefix(pattern, "*"))
	}

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(baseName, strings.TrimSuffix(pattern, "*"))
	}

	return baseName == pattern
}

func matchesAnyFilePattern(relPath string, patterns []string) bool {
	baseName := filepath.Base(relPath)
	for _, pattern := range patterns {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	return false
}
