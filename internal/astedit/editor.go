package astedit

import (
	"context"
	"sort"
	"strings"

	"github.com/meridian-mem/meridian/internal/errors"
)

// Editor holds a source buffer, its parse tree, and a list of pending
// edits. apply_edits drains pending edits and reparses; the only other
// path that replaces Source and Tree is a Watcher's live reparse, which
// also discards pending edits.
type Editor struct {
	parser  *Parser
	tree    *Tree
	pending []Edit
}

// NewEditor parses source in the given language and returns an Editor
// ready to accept edits against it.
func NewEditor(ctx context.Context, source []byte, language string) (*Editor, error) {
	p := NewParser()
	tree, err := p.Parse(ctx, source, language)
	if err != nil {
		p.Close()
		return nil, err
	}
	return &Editor{parser: p, tree: tree}, nil
}

// Close releases the underlying tree-sitter parser.
func (e *Editor) Close() {
	e.parser.Close()
}

// Tree returns the current committed tree.
func (e *Editor) Tree() *Tree {
	return e.tree
}

// Source returns the current committed source.
func (e *Editor) Source() []byte {
	return e.tree.Source
}

// PendingCount reports how many edits are queued but not yet applied.
func (e *Editor) PendingCount() int {
	return len(e.pending)
}

func (e *Editor) byteOffset(line, col int) (uint32, error) {
	lines := strings.Split(string(e.tree.Source), "\n")
	if line < 0 || line >= len(lines) {
		return 0, errors.New(errors.ErrCodeNodeNotFound, "line out of range", nil)
	}
	offset := 0
	for i := 0; i < line; i++ {
		offset += len(lines[i]) + 1
	}
	offset += col
	if offset > len(e.tree.Source) {
		return 0, errors.New(errors.ErrCodeNodeNotFound, "column out of range", nil)
	}
	return uint32(offset), nil
}

// InsertAt queues an insertion of text at (line, col).
func (e *Editor) InsertAt(line, col int, text string) error {
	offset, err := e.byteOffset(line, col)
	if err != nil {
		return err
	}
	e.pending = append(e.pending, Edit{StartByte: offset, EndByte: offset, NewText: text})
	return nil
}

// ReplaceNode queues replacing node's full span with newText.
func (e *Editor) ReplaceNode(node *Node, newText string) {
	e.pending = append(e.pending, Edit{StartByte: node.StartByte, EndByte: node.EndByte, NewText: newText})
}

// DeleteNode queues deleting node's full span.
func (e *Editor) DeleteNode(node *Node) {
	e.pending = append(e.pending, Edit{StartByte: node.StartByte, EndByte: node.EndByte, NewText: ""})
}

// RenameSymbol walks the tree for identifier-like nodes whose text equals
// old and queues a replace for each, returning the queued edits so callers
// can preview the set before apply_edits commits them.
func (e *Editor) RenameSymbol(old, new string) RenameResult {
	config, ok := DefaultRegistry().GetByName(e.tree.Language)
	identTypes := map[string]bool{"identifier": true, "type_identifier": true}
	if ok {
		identTypes = make(map[string]bool, len(config.IdentifierTypes))
		for _, t := range config.IdentifierTypes {
			identTypes[t] = true
		}
	}

	var matched []Edit
	e.tree.Root.Walk(func(n *Node) bool {
		if identTypes[n.Type] && n.GetContent(e.tree.Source) == old {
			edit := Edit{StartByte: n.StartByte, EndByte: n.EndByte, NewText: new}
			matched = append(matched, edit)
			e.pending = append(e.pending, edit)
		}
		return true
	})
	return RenameResult{Edits: matched}
}

// AddImport inserts a grammar-appropriate import statement before the
// first existing import, or at the file head when none exist.
func (e *Editor) AddImport(path string) {
	config, ok := DefaultRegistry().GetByName(e.tree.Language)
	importTypes := map[string]bool{}
	keyword := "import"
	if ok {
		for _, t := range config.ImportTypes {
			importTypes[t] = true
		}
		keyword = config.ImportKeyword
	}

	var firstImport *Node
	e.tree.Root.Walk(func(n *Node) bool {
		if firstImport != nil {
			return false
		}
		if importTypes[n.Type] {
			firstImport = n
		}
		return true
	})

	stmt := formatImportStatement(e.tree.Language, keyword, path)
	if firstImport != nil {
		e.pending = append(e.pending, Edit{StartByte: firstImport.StartByte, EndByte: firstImport.StartByte, NewText: stmt + "\n"})
		return
	}
	e.pending = append(e.pending, Edit{StartByte: 0, EndByte: 0, NewText: stmt + "\n"})
}

func formatImportStatement(language, keyword, path string) string {
	switch language {
	case "go":
		return keyword + ` "` + path + `"`
	case "python":
		return keyword + " " + path
	default:
		return keyword + ` "` + path + `";`
	}
}

// OptimizeImports collects every import node, deduplicates by exact text,
// sorts lexicographically, deletes all originals, and queues the sorted
// block where the earliest original import started.
func (e *Editor) OptimizeImports() ImportReport {
	config, ok := DefaultRegistry().GetByName(e.tree.Language)
	if !ok || len(config.ImportTypes) == 0 {
		return ImportReport{}
	}

	var nodes []*Node
	for _, t := range config.ImportTypes {
		nodes = append(nodes, e.tree.Root.FindAllByType(t)...)
	}
	if len(nodes) == 0 {
		return ImportReport{}
	}

	seen := make(map[string]bool)
	var unique []string
	for _, n := range nodes {
		text := strings.TrimSpace(n.GetContent(e.tree.Source))
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		unique = append(unique, text)
	}
	sort.Strings(unique)

	removed := 0
	for _, n := range nodes {
		e.pending = append(e.pending, Edit{StartByte: n.StartByte, EndByte: n.EndByte, NewText: ""})
		removed++
	}

	block := strings.Join(unique, "\n")
	insertAt := nodes[0].StartByte
	for _, n := range nodes {
		if n.StartByte < insertAt {
			insertAt = n.StartByte
		}
	}
	e.pending = append(e.pending, Edit{StartByte: insertAt, EndByte: insertAt, NewText: block + "\n"})

	return ImportReport{Removed: removed, Sorted: unique, Grouped: true}
}

// ChangeSignature locates a function declaration by name and replaces its
// signature text, up to the opening brace, with a newly composed one.
func (e *Editor) ChangeSignature(name, newParams, newReturnType string) error {
	config, ok := DefaultRegistry().GetByName(e.tree.Language)
	funcTypes := []string{"function_declaration"}
	if ok {
		funcTypes = config.FunctionTypes
	}

	fn := e.findFunctionByName(funcTypes, name)
	if fn == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "function not found: "+name, nil)
	}

	bodyStart := fn.EndByte
	for _, child := range fn.Children {
		if child.Type == "block" || child.Type == "statement_block" || child.Type == "compound_statement" {
			bodyStart = child.StartByte
			break
		}
	}

	sig := name + "(" + newParams + ")"
	if newReturnType != "" {
		sig += " " + newReturnType
	}

	e.pending = append(e.pending, Edit{StartByte: fn.StartByte, EndByte: bodyStart, NewText: sig + " "})
	return nil
}

func (e *Editor) findFunctionByName(funcTypes []string, name string) *Node {
	var result *Node
	e.tree.Root.Walk(func(n *Node) bool {
		if result != nil {
			return false
		}
		for _, ft := range funcTypes {
			if n.Type != ft {
				continue
			}
			for _, child := range n.Children {
				if strings.Contains(child.Type, "identifier") && child.GetContent(e.tree.Source) == name {
					result = n
					return false
				}
			}
		}
		return true
	})
	return result
}

// ExtractFunction replaces the [startLine, endLine] block with a call to
// newName and returns the extracted function's source. Variable analysis
// is stubbed to empty parameter and return lists so the emitted call and
// declaration remain syntactically well-formed without real dataflow
// analysis.
func (e *Editor) ExtractFunction(startLine, endLine int, newName string) (ExtractedFunction, error) {
	lines := strings.Split(string(e.tree.Source), "\n")
	if startLine < 0 || endLine >= len(lines) || startLine > endLine {
		return ExtractedFunction{}, errors.New(errors.ErrCodeNodeNotFound, "line range out of bounds", nil)
	}

	selected := strings.Join(lines[startLine:endLine+1], "\n")
	indent := leadingWhitespace(lines[startLine])

	startOffset, err := e.byteOffset(startLine, 0)
	if err != nil {
		return ExtractedFunction{}, err
	}
	var endOffset uint32
	if endLine+1 < len(lines) {
		endOffset, err = e.byteOffset(endLine+1, 0)
		if err != nil {
			return ExtractedFunction{}, err
		}
	} else {
		endOffset = uint32(len(e.tree.Source))
	}

	call := indent + callExpression(e.tree.Language, newName)
	e.pending = append(e.pending, Edit{StartByte: startOffset, EndByte: endOffset, NewText: call + "\n"})

	fnCode := functionDeclaration(e.tree.Language, newName, selected)
	insertAt := e.enclosingScopeInsertPoint(startOffset)
	e.pending = append(e.pending, Edit{StartByte: insertAt, EndByte: insertAt, NewText: fnCode + "\n\n"})

	return ExtractedFunction{
		Name:         newName,
		Parameters:   nil,
		ReturnType:   "",
		FunctionCode: fnCode,
	}, nil
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

func callExpression(language, name string) string {
	switch language {
	case "python":
		return name + "()"
	default:
		return name + "();"
	}
}

func functionDeclaration(language, name, body string) string {
	switch language {
	case "go":
		return "func " + name + "() {\n" + body + "\n}"
	case "python":
		return "def " + name + "():\n" + body
	default:
		return "function " + name + "() {\n" + body + "\n}"
	}
}

// enclosingScopeInsertPoint finds the start of the top-level statement that
// contains offset, so an extracted function is inserted as a sibling
// declaration rather than nested inside the block it was extracted from.
func (e *Editor) enclosingScopeInsertPoint(offset uint32) uint32 {
	var containing *Node
	for _, child := range e.tree.Root.Children {
		if child.StartByte <= offset && offset <= child.EndByte {
			containing = child
			break
		}
	}
	if containing == nil {
		return 0
	}
	return containing.StartByte
}

// Query performs a by-kind node selection over the current tree.
func (e *Editor) Query(kind string) []*Node {
	return e.tree.Root.FindAllByType(kind)
}

// ApplyEdits sorts pending edits by start offset descending, splices them
// into a clone of the source, and reparses. On success the new source and
// tree are committed and pending is cleared; on failure the editor is left
// unchanged and the reparse error is returned.
func (e *Editor) ApplyEdits(ctx context.Context) error {
	if len(e.pending) == 0 {
		return nil
	}

	edits := make([]Edit, len(e.pending))
	copy(edits, e.pending)
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].StartByte > edits[j].StartByte
	})

	source := append([]byte(nil), e.tree.Source...)
	for _, edit := range edits {
		if int(edit.EndByte) > len(source) || edit.StartByte > edit.EndByte {
			return errors.New(errors.ErrCodePendingEditConflict, "edit out of range of current source", nil)
		}
		var next []byte
		next = append(next, source[:edit.StartByte]...)
		next = append(next, []byte(edit.NewText)...)
		next = append(next, source[edit.EndByte:]...)
		source = next
	}

	newTree, err := e.parser.Parse(ctx, source, e.tree.Language)
	if err != nil {
		return err
	}

	e.tree = newTree
	e.pending = nil
	return nil
}
