package linkextract

import (
	"context"
	"os"
	"strings"

	"github.com/meridian-mem/meridian/internal/workspace"
)

// Registry is the small, fixed set of extractors run over every
// discovered file; extractorsFor picks which of them apply by file kind.
type Registry struct {
	annotation *AnnotationExtractor
	treeSitter *TreeSitterExtractor
	markdown   *MarkdownExtractor
}

// NewRegistry builds the default three-extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		annotation: NewAnnotationExtractor(),
		treeSitter: NewTreeSitterExtractor(),
		markdown:   NewMarkdownExtractor(),
	}
}

// Close releases resources held by extractors (the tree-sitter parser).
func (r *Registry) Close() {
	r.treeSitter.Close()
}

// extractorsFor selects which extractors apply to a file, by kind.
func (r *Registry) extractorsFor(kind workspace.FileKind) []LinkExtractor {
	switch kind {
	case workspace.FileKindMarkdown:
		return []LinkExtractor{r.markdown}
	case workspace.FileKindCode:
		return []LinkExtractor{r.annotation, r.treeSitter}
	default:
		return []LinkExtractor{r.annotation}
	}
}

// ExtractFile runs every applicable extractor over one file's content.
func (r *Registry) ExtractFile(path, content string, kind workspace.FileKind, level Level) ([]SemanticLink, error) {
	var links []SemanticLink
	for _, ex := range r.extractorsFor(kind) {
		found, err := ex.Extract(path, content, level)
		if err != nil {
			continue
		}
		links = append(links, found...)
	}
	return links, nil
}

// ExtractProject walks rootDir with a workspace.Walker, runs the
// applicable extractors over every discovered file, and returns the
// merged, deduplicated link set.
func ExtractProject(ctx context.Context, w *workspace.Walker, rootDir string) ([]SemanticLink, error) {
	registry := NewRegistry()
	defer registry.Close()

	results, err := w.Walk(ctx, workspace.Options{RootDir: rootDir, RespectGitignore: true})
	if err != nil {
		return nil, err
	}

	var all []SemanticLink
	for res := range results {
		if res.Error != nil || res.File == nil {
			continue
		}
		data, err := os.ReadFile(res.File.AbsPath)
		if err != nil {
			continue
		}

		level := levelForPath(res.File.Path)
		links, err := registry.ExtractFile(res.File.Path, string(data), res.File.Kind, level)
		if err != nil {
			continue
		}
		all = append(all, links...)
	}

	return Dedupe(all), nil
}

func levelForPath(path string) Level {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "/examples/"):
		return LevelExamples
	case strings.Contains(lower, "/tests/"), strings.HasSuffix(lower, "_test.go"):
		return LevelTests
	case strings.HasSuffix(lower, ".md"):
		return LevelDocs
	default:
		return LevelCode
	}
}

// Dedupe merges a link set on (link_type, source, target), where source
// and target are each the full (level, id) endpoint, keeping the
// highest-confidence entry for each key — the caller-side merge step
// every extractor's output is deterministic and reproducible for.
func Dedupe(links []SemanticLink) []SemanticLink {
	type key struct {
		linkType     LinkType
		sourceLevel  Level
		sourceID     string
		targetLevel  Level
		targetID     string
	}

	best := make(map[key]SemanticLink)
	var order []key

	for _, l := range links {
		k := key{
			linkType:    l.LinkType,
			sourceLevel: l.Source.Level,
			sourceID:    l.Source.ID,
			targetLevel: l.Target.Level,
			targetID:    l.Target.ID,
		}
		existing, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = l
			continue
		}
		if l.Confidence > existing.Confidence {
			best[k] = l
		}
	}

	deduped := make([]SemanticLink, 0, len(order))
	for _, k := range order {
		deduped = append(deduped, best[k])
	}
	return deduped
}
