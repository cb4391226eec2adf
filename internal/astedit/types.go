// Package astedit lets callers express edits to a parsed source file by
// position, node, or semantic operation, defer them, and apply the whole
// batch atomically with a reparse. A Parser converts a
// smacker/go-tree-sitter tree into a plain Node tree once, so every later
// query and edit computation walks ordinary Go structs instead of
// cgo-adjacent tree-sitter handles.
package astedit

// Point is a 0-indexed line/column position in source text.
type Point struct {
	Row    uint32
	Column uint32
}

// Node is a parsed AST node. Children are eagerly materialized at parse
// time rather than queried lazily from the underlying tree-sitter tree.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// GetContent returns the source slice spanned by the node.
func (n *Node) GetContent(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// FindChildByType returns the first direct child with the given type.
func (n *Node) FindChildByType(nodeType string) *Node {
	for _, child := range n.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

// FindChildrenByType returns every direct child with the given type.
func (n *Node) FindChildrenByType(nodeType string) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Type == nodeType {
			result = append(result, child)
		}
	}
	return result
}

// FindAllByType recursively collects every node with the given type.
func (n *Node) FindAllByType(nodeType string) []*Node {
	var result []*Node
	if n.Type == nodeType {
		result = append(result, n)
	}
	for _, child := range n.Children {
		result = append(result, child.FindAllByType(nodeType)...)
	}
	return result
}

// Walk traverses the tree depth-first, calling fn for each node. Returning
// false from fn stops the walk at that subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Tree is a parsed source file.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Edit is a pending splice: replace source[StartByte:EndByte] with NewText.
type Edit struct {
	StartByte uint32
	EndByte   uint32
	NewText   string
}

// RenameResult previews the edits rename_symbol would apply.
type RenameResult struct {
	Edits []Edit
}

// ImportReport describes what optimize_imports changed.
type ImportReport struct {
	Removed int
	Sorted  []string
	Grouped bool
}

// ExtractedFunction is the result of extract_function.
type ExtractedFunction struct {
	Name         string
	Parameters   []string
	ReturnType   string
	FunctionCode string
}
