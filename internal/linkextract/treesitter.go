package linkextract

import (
	"context"
	"strings"

	"github.com/meridian-mem/meridian/internal/astedit"
)

const confidenceSyntaxDependsOn = 0.7

// languageByExtension maps a file extension to the astedit language name:
// it checks path against a fixed list of extensions and looks the matching
// one up in astedit's default registry.
func languageByExtension(path string) (string, bool) {
	for _, ext := range []string{".go", ".ts", ".tsx", ".js", ".mjs", ".jsx", ".py"} {
		if strings.HasSuffix(path, ext) {
			config, ok := astedit.DefaultRegistry().GetByExtension(ext)
			if !ok {
				return "", false
			}
			return config.Name, true
		}
	}
	return "", false
}

// TreeSitterExtractor walks a file's parse tree for import/use nodes and
// emits one DependsOn link per import node. Named symbols in an import are
// not extracted.
type TreeSitterExtractor struct {
	parser *astedit.Parser
}

// NewTreeSitterExtractor creates a TreeSitterExtractor using astedit's
// default language registry.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{parser: astedit.NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (e *TreeSitterExtractor) Close() {
	e.parser.Close()
}

// Extract parses content and emits one DependsOn link for each import/use
// node, targeting "<module>.<module base name>".
func (e *TreeSitterExtractor) Extract(path, content string, level Level) ([]SemanticLink, error) {
	language, ok := languageByExtension(path)
	if !ok {
		return nil, nil
	}

	tree, err := e.parser.Parse(context.Background(), []byte(content), language)
	if err != nil {
		return nil, err
	}

	config, ok := astedit.DefaultRegistry().GetByName(language)
	if !ok {
		return nil, nil
	}

	var links []SemanticLink
	for _, importType := range config.ImportTypes {
		for _, node := range tree.Root.FindAllByType(importType) {
			module, symbols := parseImportNode(language, node.GetContent(tree.Source))
			for _, sym := range symbols {
				links = append(links, SemanticLink{
					LinkType:   LinkDependsOn,
					Source:     Endpoint{Level: level, ID: path},
					Target:     Endpoint{Level: LevelCode, ID: module + "." + sym},
					Confidence: confidenceSyntaxDependsOn,
					Method:     MethodInference,
					Origin:     "tree-sitter",
				})
			}
		}
	}
	return links, nil
}

// parseImportNode extracts (module, symbols) from one import statement's
// raw text. The module is the first quoted path in the text (or, for an
// unquoted Python import, the first path-like token), so a grouped import
// yields only its first path. The symbol list always has one element, the
// module's base name; named imports are not read.
func parseImportNode(language, text string) (string, []string) {
	text = strings.TrimSpace(text)
	module := extractQuotedPath(text)
	if module == "" {
		return "", nil
	}

	base := module
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".py")
	return module, []string{base}
}

func extractQuotedPath(text string) string {
	for _, quote := range []byte{'"', '\''} {
		start := strings.IndexByte(text, quote)
		if start < 0 {
			continue
		}
		end := strings.IndexByte(text[start+1:], quote)
		if end < 0 {
			continue
		}
		return text[start+1 : start+1+end]
	}
	// Python "import foo.bar" has no quotes; take the first path-like token.
	fields := strings.Fields(strings.TrimPrefix(text, "from "))
	fields = strings.Fields(strings.TrimPrefix(strings.Join(fields, " "), "import "))
	if len(fields) > 0 {
		return strings.TrimSuffix(fields[0], ",")
	}
	return ""
}
