// Package linkextract derives typed cross-artifact relationships from
// three orthogonal signal sources: structured annotations, tree-sitter
// import/use syntax, and markdown inline links. Each extractor implements
// one LinkExtractor interface rather than a class hierarchy, per the
// sum-type-over-virtual-dispatch shape the pack favors for small, closed
// sets of implementations.
package linkextract

// Level is an artifact tier a link endpoint belongs to.
type Level string

const (
	LevelSpec     Level = "Spec"
	LevelCode     Level = "Code"
	LevelDocs     Level = "Docs"
	LevelTests    Level = "Tests"
	LevelExamples Level = "Examples"
)

// LinkType names the kind of relationship a SemanticLink expresses.
type LinkType string

const (
	LinkRealizes      LinkType = "Realizes"
	LinkDocumentedIn  LinkType = "DocumentedIn"
	LinkDependsOn     LinkType = "DependsOn"
	LinkRelatesTo     LinkType = "RelatesTo"
	LinkImplementedBy LinkType = "ImplementedBy"
	LinkShowsExample  LinkType = "ShowsExample"
)

// Method records whether a link was read directly from the source
// (Annotation) or derived heuristically (Inference).
type Method string

const (
	MethodAnnotation Method = "Annotation"
	MethodInference  Method = "Inference"
)

// Endpoint is one side of a link: an artifact tier and an identifier
// within it.
type Endpoint struct {
	Level Level  `json:"level"`
	ID    string `json:"id"`
}

// SemanticLink is one derived relationship between two artifacts.
type SemanticLink struct {
	LinkType   LinkType `json:"link_type"`
	Source     Endpoint `json:"source"`
	Target     Endpoint `json:"target"`
	Confidence float64  `json:"confidence"`
	Method     Method   `json:"method"`
	Origin     string   `json:"origin"`
	Context    string   `json:"context,omitempty"`
}

// LinkExtractor is the common interface every extractor implements: given
// a file's path, content, and the level the file itself belongs to,
// produce a deterministic, reproducible list of links.
type LinkExtractor interface {
	Extract(path, content string, level Level) ([]SemanticLink, error)
}
