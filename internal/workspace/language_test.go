package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage_KnownExtensions(t *testing.T) {
	assert.Equal(t, "go", DetectLanguage("main.go"))
	assert.Equal(t, "python", DetectLanguage("scripts/build.py"))
	assert.Equal(t, "markdown", DetectLanguage("README.md"))
	assert.Equal(t, "", DetectLanguage("Makefile"))
}

func TestDetectKind_ClassifiesByLanguage(t *testing.T) {
	assert.Equal(t, FileKindCode, DetectKind("go"))
	assert.Equal(t, FileKindMarkdown, DetectKind("markdown"))
	assert.Equal(t, FileKindConfig, DetectKind("yaml"))
	assert.Equal(t, FileKindText, DetectKind(""))
}

func TestIsGeneratedFileContent_DetectsMarkers(t *testing.T) {
	assert.True(t, isGeneratedFileContent([]byte("// Code generated by mockgen. DO NOT EDIT.\npackage foo\n")))
	assert.True(t, isGeneratedFileContent([]byte("/* @generated */\npackage foo\n")))
	assert.False(t, isGeneratedFileContent([]byte("package foo\n\nfunc main() {}\n")))
}
