package workspace

import (
	"path/filepath"
	"strings"
)

// languageMap maps file extensions to a human-readable language name.
var languageMap = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sh":    "shell",
	".bash":  "shell",
	".zsh":   "shell",
	".sql":   "sql",
	".md":    "markdown",
	".mdx":   "markdown",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
	".proto": "protobuf",
}

// DetectLanguage returns the language name for path based on its
// extension, or "" if unrecognized.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return languageMap[ext]
}

// DetectKind classifies a file for the link extractor based on the
// language DetectLanguage assigned it.
func DetectKind(language string) FileKind {
	switch language {
	case "":
		return FileKindText
	case "markdown":
		return FileKindMarkdown
	case "yaml", "json", "toml":
		return FileKindConfig
	default:
		return FileKindCode
	}
}

// isGeneratedFileContent reports whether a file's leading bytes carry a
// standard generated-code marker.
func isGeneratedFileContent(head []byte) bool {
	s := string(head)
	markers := []string{
		"Code generated",
		"DO NOT EDIT",
		"@generated",
		"This file was automatically generated",
	}
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
