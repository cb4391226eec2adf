package linkextract

import (
	"bufio"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterPattern matches the YAML frontmatter block at the head of a
// markdown file.
var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.+?)\n---\n*`)

// annotationPattern matches @meridian:<link_type> <level>:<target_id> [<context>]
// inside a stripped comment line.
var annotationPattern = regexp.MustCompile(`@meridian:(\w+)\s+(\w+):(\S+)(?:\s+(.*))?$`)

const (
	confidenceAnnotationComment     = 0.95
	confidenceAnnotationFrontmatter = 1.0
)

var levelAliases = map[string]Level{
	"spec":     LevelSpec,
	"code":     LevelCode,
	"docs":     LevelDocs,
	"tests":    LevelTests,
	"examples": LevelExamples,
}

// AnnotationExtractor recognizes @meridian: annotations in source comments
// of any language, and in YAML frontmatter of markdown files.
type AnnotationExtractor struct{}

// NewAnnotationExtractor creates an AnnotationExtractor.
func NewAnnotationExtractor() *AnnotationExtractor {
	return &AnnotationExtractor{}
}

// Extract scans content for annotation links. path identifies the source
// artifact; level is the tier that artifact itself belongs to.
func (e *AnnotationExtractor) Extract(path, content string, level Level) ([]SemanticLink, error) {
	var links []SemanticLink

	if fm := frontmatterPattern.FindStringSubmatch(content); fm != nil {
		fmLinks, err := extractFrontmatterLinks(path, fm[1], level)
		if err == nil {
			links = append(links, fmLinks...)
		}
	}

	for _, comment := range extractComments(content) {
		if m := annotationPattern.FindStringSubmatch(comment); m != nil {
			if link, ok := buildAnnotationLink(path, level, m, "comment", confidenceAnnotationComment); ok {
				links = append(links, link)
			}
		}
	}

	return links, nil
}

func buildAnnotationLink(path string, sourceLevel Level, m []string, origin string, confidence float64) (SemanticLink, bool) {
	linkType := m[1]
	targetLevel, ok := levelAliases[strings.ToLower(m[2])]
	if !ok {
		return SemanticLink{}, false
	}
	targetID := m[3]
	context := strings.TrimSpace(m[4])

	return SemanticLink{
		LinkType:   LinkType(linkType),
		Source:     Endpoint{Level: sourceLevel, ID: path},
		Target:     Endpoint{Level: targetLevel, ID: targetID},
		Confidence: confidence,
		Method:     MethodAnnotation,
		Origin:     origin,
		Context:    context,
	}, true
}

// frontmatterLinks is the subset of frontmatter fields the annotation
// extractor recognizes: a `meridian` key whose value is a list of
// "<link_type> <level>:<target_id> [<context>]" strings.
type frontmatterLinks struct {
	Meridian []string `yaml:"meridian"`
}

func extractFrontmatterLinks(path, yamlBody string, level Level) ([]SemanticLink, error) {
	var fm frontmatterLinks
	if err := yaml.Unmarshal([]byte(yamlBody), &fm); err != nil {
		return nil, err
	}

	var links []SemanticLink
	for _, entry := range fm.Meridian {
		m := frontmatterEntryPattern.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		fakeMatch := []string{"", m[1], m[2], m[3], ""}
		if len(m) > 4 {
			fakeMatch[4] = m[4]
		}
		if link, ok := buildAnnotationLink(path, level, fakeMatch, "frontmatter", confidenceAnnotationFrontmatter); ok {
			links = append(links, link)
		}
	}
	return links, nil
}

var frontmatterEntryPattern = regexp.MustCompile(`^(\w+)\s+(\w+):(\S+)(?:\s+(.*))?$`)

// extractComments returns every block comment and every maximal run of
// consecutive line comments in content, across the comment conventions of
// the languages astedit supports (//, ///, #, and /* ... */).
func extractComments(content string) []string {
	var comments []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var run []string
	flushRun := func() {
		if len(run) > 0 {
			comments = append(comments, strings.Join(run, "\n"))
			run = nil
		}
	}

	inBlock := false
	var block []string

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if inBlock {
			block = append(block, line)
			if strings.Contains(trimmed, "*/") {
				comments = append(comments, strings.Join(block, "\n"))
				block = nil
				inBlock = false
			}
			continue
		}

		if strings.HasPrefix(trimmed, "/*") {
			flushRun()
			if strings.Contains(trimmed, "*/") {
				comments = append(comments, trimmed)
			} else {
				inBlock = true
				block = []string{line}
			}
			continue
		}

		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			run = append(run, trimmed)
			continue
		}

		flushRun()
	}
	flushRun()
	if len(block) > 0 {
		comments = append(comments, strings.Join(block, "\n"))
	}

	return comments
}
