package linkextract

import (
	"net/url"
	"regexp"
	"strings"
)

const confidenceMarkdownRelatesTo = 0.6

// inlineLinkPattern matches markdown inline links: [text](url).
var inlineLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)

// MarkdownExtractor runs the annotation extractor over a markdown file's
// frontmatter and comments, then infers RelatesTo links from inline
// [text](url) references by classifying the URL's path shape.
type MarkdownExtractor struct {
	annotations *AnnotationExtractor
}

// NewMarkdownExtractor creates a MarkdownExtractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{annotations: NewAnnotationExtractor()}
}

// Extract scans a markdown file for annotation and inline-link signals.
func (e *MarkdownExtractor) Extract(path, content string, level Level) ([]SemanticLink, error) {
	links, err := e.annotations.Extract(path, content, level)
	if err != nil {
		return nil, err
	}

	for _, m := range inlineLinkPattern.FindAllStringSubmatch(content, -1) {
		target := strings.TrimSpace(m[2])
		if isExternalLink(target) {
			continue
		}

		targetLevel, ok := classifyLinkPath(target)
		if !ok {
			continue
		}

		links = append(links, SemanticLink{
			LinkType:   LinkRelatesTo,
			Source:     Endpoint{Level: level, ID: path},
			Target:     Endpoint{Level: targetLevel, ID: target},
			Confidence: confidenceMarkdownRelatesTo,
			Method:     MethodInference,
			Origin:     "markdown",
		})
	}

	return links, nil
}

func isExternalLink(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.IsAbs()
}

// classifyLinkPath infers the target artifact's level from its URL path
// shape: heuristic, never promoted above confidenceMarkdownRelatesTo, and
// never allowed to outrank an annotation-sourced link.
func classifyLinkPath(target string) (Level, bool) {
	lower := strings.ToLower(target)
	switch {
	case strings.Contains(lower, "/examples/"):
		return LevelExamples, true
	case strings.Contains(lower, "/tests/"):
		return LevelTests, true
	case strings.Contains(lower, "/src/"), strings.Contains(lower, "/lib/"):
		return LevelCode, true
	case strings.HasSuffix(lower, ".md"):
		return LevelDocs, true
	default:
		return "", false
	}
}
