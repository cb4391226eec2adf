package astedit

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageConfig names the grammar node types an edit operation needs to
// recognize for one language: where functions live, what counts as an
// identifier, what an import statement looks like.
type LanguageConfig struct {
	Name            string
	Extensions      []string
	FunctionTypes   []string
	IdentifierTypes []string
	ImportTypes     []string
	ImportKeyword   string
}

// LanguageRegistry is an opaque capability: astedit consumes it to resolve
// a tree-sitter grammar and its edit-relevant node-type vocabulary, but
// does not reimplement or extend grammar tables itself.
type LanguageRegistry struct {
	mu          sync.RWMutex
	configs     map[string]*LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewLanguageRegistry builds a registry with the languages astedit supports.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:     make(map[string]*LanguageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}
	r.registerGo()
	r.registerTypeScript()
	r.registerJavaScript()
	r.registerPython()
	return r
}

func (r *LanguageRegistry) registerLanguage(config *LanguageConfig, tsLang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[config.Name] = config
	r.tsLanguages[config.Name] = tsLang
	for _, ext := range config.Extensions {
		r.extToLang[ext] = config.Name
	}
}

// GetByExtension resolves a language config from a file extension.
func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	config, ok := r.configs[name]
	return config, ok
}

// GetByName resolves a language config by name.
func (r *LanguageRegistry) GetByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	config, ok := r.configs[name]
	return config, ok
}

// GetTreeSitterLanguage resolves the underlying tree-sitter grammar.
func (r *LanguageRegistry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.tsLanguages[name]
	return lang, ok
}

func (r *LanguageRegistry) registerGo() {
	r.registerLanguage(&LanguageConfig{
		Name:            "go",
		Extensions:      []string{".go"},
		FunctionTypes:   []string{"function_declaration", "method_declaration"},
		IdentifierTypes: []string{"identifier", "type_identifier", "field_identifier", "package_identifier"},
		ImportTypes:     []string{"import_declaration"},
		ImportKeyword:   "import",
	}, golang.GetLanguage())
}

func (r *LanguageRegistry) registerTypeScript() {
	ts := &LanguageConfig{
		Name:            "typescript",
		Extensions:      []string{".ts"},
		FunctionTypes:   []string{"function_declaration", "method_definition"},
		IdentifierTypes: []string{"identifier", "type_identifier", "property_identifier"},
		ImportTypes:     []string{"import_statement"},
		ImportKeyword:   "import",
	}
	r.registerLanguage(ts, typescript.GetLanguage())

	r.registerLanguage(&LanguageConfig{
		Name:            "tsx",
		Extensions:      []string{".tsx"},
		FunctionTypes:   ts.FunctionTypes,
		IdentifierTypes: ts.IdentifierTypes,
		ImportTypes:     ts.ImportTypes,
		ImportKeyword:   ts.ImportKeyword,
	}, tsx.GetLanguage())
}

func (r *LanguageRegistry) registerJavaScript() {
	js := &LanguageConfig{
		Name:            "javascript",
		Extensions:      []string{".js", ".mjs"},
		FunctionTypes:   []string{"function_declaration", "function", "method_definition"},
		IdentifierTypes: []string{"identifier", "property_identifier"},
		ImportTypes:     []string{"import_statement"},
		ImportKeyword:   "import",
	}
	r.registerLanguage(js, javascript.GetLanguage())

	r.registerLanguage(&LanguageConfig{
		Name:            "jsx",
		Extensions:      []string{".jsx"},
		FunctionTypes:   js.FunctionTypes,
		IdentifierTypes: js.IdentifierTypes,
		ImportTypes:     js.ImportTypes,
		ImportKeyword:   js.ImportKeyword,
	}, javascript.GetLanguage())
}

func (r *LanguageRegistry) registerPython() {
	r.registerLanguage(&LanguageConfig{
		Name:            "python",
		Extensions:      []string{".py"},
		FunctionTypes:   []string{"function_definition"},
		IdentifierTypes: []string{"identifier"},
		ImportTypes:     []string{"import_statement", "import_from_statement"},
		ImportKeyword:   "import",
	}, python.GetLanguage())
}

var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the package-wide language registry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
