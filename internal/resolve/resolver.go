// Package resolve determines the quoted code span for an annotation: the
// explicit block between marker pairs, or the next definition after the
// annotation comment, found language-aware via tree-sitter.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"ucdocs/internal/annotation"
	"ucdocs/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Span is the resolved code region for one annotation part.
type Span struct {
	File      string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
	Code      string
}

// Resolver resolves annotation spans. It owns one tree-sitter parser per
// supported grammar; not safe for concurrent use.
type Resolver struct {
	goParser     *sitter.Parser
	pythonParser *sitter.Parser
	rustParser   *sitter.Parser
	jsParser     *sitter.Parser
	tsParser     *sitter.Parser
}

// NewResolver creates a resolver with all grammars loaded.
func NewResolver() *Resolver {
	logging.ResolveDebug("creating resolver")
	return &Resolver{
		goParser:     sitter.NewParser(),
		pythonParser: sitter.NewParser(),
		rustParser:   sitter.NewParser(),
		jsParser:     sitter.NewParser(),
		tsParser:     sitter.NewParser(),
	}
}

// Close releases parser resources.
func (r *Resolver) Close() {
	r.goParser.Close()
	r.pythonParser.Close()
	r.rustParser.Close()
	r.jsParser.Close()
	r.tsParser.Close()
}

// Resolve returns the span an annotation quotes within its file content.
func (r *Resolver) Resolve(ctx context.Context, ann annotation.Annotation, content []byte) (Span, error) {
	lines := strings.Split(string(content), "\n")

	if ann.Block {
		return blockSpan(ann, lines)
	}

	start, end, err := r.definitionAfter(ctx, ann, content)
	if err != nil {
		return Span{}, err
	}
	if start == 0 {
		// Grammar not available for this language: heuristics
		start, end = heuristicSpan(ann, lines)
		if start == 0 {
			return Span{}, fmt.Errorf("%s:%d: no code span found for @unsafe[%s]", ann.File, ann.Line, ann.ID)
		}
	}

	return makeSpan(ann.File, lines, start, end)
}

// blockSpan extracts the lines strictly between the opener comment and the
// closing marker, trimmed of blank edges.
func blockSpan(ann annotation.Annotation, lines []string) (Span, error) {
	start := ann.MetaEnd + 1
	end := ann.CloserLine - 1
	for start <= end && strings.TrimSpace(lines[start-1]) == "" {
		start++
	}
	for end >= start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start > end {
		return Span{}, fmt.Errorf("%s:%d: empty block for @unsafe[%s]", ann.File, ann.Line, ann.ID)
	}
	return makeSpan(ann.File, lines, start, end)
}

func makeSpan(file string, lines []string, start, end int) (Span, error) {
	if start < 1 || end > len(lines) || start > end {
		return Span{}, fmt.Errorf("%s: span %d-%d out of range", file, start, end)
	}
	return Span{
		File:      file,
		StartLine: start,
		EndLine:   end,
		Code:      strings.Join(lines[start-1:end], "\n"),
	}, nil
}

// definitionAfter finds the first definition node starting after the
// annotation comment. Returns (0, 0, nil) when no grammar covers the
// language.
func (r *Resolver) definitionAfter(ctx context.Context, ann annotation.Annotation, content []byte) (int, int, error) {
	var parser *sitter.Parser
	var defTypes map[string]bool

	switch ann.Language {
	case "go":
		parser = r.goParser
		parser.SetLanguage(golang.GetLanguage())
		defTypes = map[string]bool{
			"function_declaration": true,
			"method_declaration":   true,
			"type_declaration":     true,
		}
	case "python":
		parser = r.pythonParser
		parser.SetLanguage(python.GetLanguage())
		defTypes = map[string]bool{
			"function_definition":  true,
			"class_definition":     true,
			"decorated_definition": true,
		}
	case "rust":
		parser = r.rustParser
		parser.SetLanguage(rust.GetLanguage())
		defTypes = map[string]bool{
			"function_item": true,
			"struct_item":   true,
			"enum_item":     true,
			"impl_item":     true,
			"trait_item":    true,
		}
	case "javascript":
		parser = r.jsParser
		parser.SetLanguage(javascript.GetLanguage())
		defTypes = map[string]bool{
			"function_declaration": true,
			"class_declaration":    true,
			"method_definition":    true,
			"lexical_declaration":  true,
		}
	case "typescript":
		parser = r.tsParser
		parser.SetLanguage(typescript.GetLanguage())
		defTypes = map[string]bool{
			"function_declaration":  true,
			"class_declaration":     true,
			"method_definition":     true,
			"interface_declaration": true,
			"lexical_declaration":   true,
		}
	default:
		return 0, 0, nil
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: parse failed: %w", ann.File, err)
	}
	defer tree.Close()

	bestStart, bestEnd := 0, 0

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		startLine := int(n.StartPoint().Row) + 1
		endLine := int(n.EndPoint().Row) + 1

		if defTypes[n.Type()] && startLine > ann.MetaEnd {
			// Nearest definition wins; on ties prefer the enclosing node
			if bestStart == 0 || startLine < bestStart ||
				(startLine == bestStart && endLine > bestEnd) {
				bestStart, bestEnd = startLine, endLine
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())

	if bestStart == 0 {
		return 0, 0, fmt.Errorf("%s:%d: no definition after @unsafe[%s]", ann.File, ann.Line, ann.ID)
	}

	logging.ResolveDebug("%s: @unsafe[%s] -> lines %d-%d", ann.File, ann.ID, bestStart, bestEnd)
	return bestStart, bestEnd, nil
}
