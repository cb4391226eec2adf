package astedit

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/meridian-mem/meridian/internal/errors"
)

// Parser wraps a tree-sitter parser bound to a language registry.
type Parser struct {
	parser   *sitter.Parser
	registry *LanguageRegistry
}

// NewParser creates a parser using the default language registry.
func NewParser() *Parser {
	return &Parser{parser: sitter.NewParser(), registry: DefaultRegistry()}
}

// NewParserWithRegistry creates a parser bound to a custom registry.
func NewParserWithRegistry(registry *LanguageRegistry) *Parser {
	return &Parser{parser: sitter.NewParser(), registry: registry}
}

// Parse parses source into a Tree for the given language name.
func (p *Parser) Parse(ctx context.Context, source []byte, language string) (*Tree, error) {
	tsLang, ok := p.registry.GetTreeSitterLanguage(language)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedLang, "unsupported language: "+language, nil)
	}

	p.parser.SetLanguage(tsLang)

	tsTree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Parse(errors.ErrCodeParseSyntax, "parse source", err)
	}
	if tsTree == nil {
		return nil, errors.New(errors.ErrCodeParseSyntax, "parse produced nil tree", nil)
	}

	root := convertNode(tsTree.RootNode())
	return &Tree{Root: root, Source: source, Language: language}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

func convertNode(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	node := &Node{
		Type:      tsNode.Type(),
		StartByte: tsNode.StartByte(),
		EndByte:   tsNode.EndByte(),
		StartPoint: Point{
			Row:    tsNode.StartPoint().Row,
			Column: tsNode.StartPoint().Column,
		},
		EndPoint: Point{
			Row:    tsNode.EndPoint().Row,
			Column: tsNode.EndPoint().Column,
		},
		HasError: tsNode.HasError(),
		Children: make([]*Node, 0, int(tsNode.ChildCount())),
	}

	for i := uint32(0); i < tsNode.ChildCount(); i++ {
		child := tsNode.Child(int(i))
		if child != nil {
			node.Children = append(node.Children, convertNode(child))
		}
	}

	return node
}
