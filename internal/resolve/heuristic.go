package resolve

import (
	"strings"

	"ucdocs/internal/annotation"
)

// braceLanguages get brace-matched spans when no grammar is available.
var braceLanguages = map[string]bool{
	"c": true, "cpp": true, "java": true, "kotlin": true, "csharp": true,
	"swift": true, "php": true, "css": true,
}

// heuristicSpan approximates a definition span for languages without a
// grammar. Brace languages are brace-matched from the first non-blank line;
// everything else takes the indentation block under the first non-blank
// line, or the paragraph up to the next blank line.
func heuristicSpan(ann annotation.Annotation, lines []string) (int, int) {
	start := firstCode(lines, ann.MetaEnd)
	if start == 0 {
		return 0, 0
	}

	if braceLanguages[ann.Language] {
		if end := braceMatch(lines, start); end > 0 {
			return start, end
		}
		// No braces on a brace language: single statement
		return start, start
	}

	if end := indentBlock(lines, start); end > 0 {
		return start, end
	}
	return start, paragraph(lines, start)
}

// firstCode returns the first non-blank line after the given line number.
func firstCode(lines []string, after int) int {
	for i := after; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i + 1
		}
	}
	return 0
}

// braceMatch scans from the start line until the brace depth, once opened,
// returns to zero.
func braceMatch(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start - 1; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i + 1
		}
		if !opened && i-(start-1) > 2 {
			// Header never opened a brace; give up on matching
			return 0
		}
	}
	return 0
}

// indentBlock takes the header line plus every following line that is blank
// or indented deeper than the header. Trailing blanks are dropped.
func indentBlock(lines []string, start int) int {
	header := lines[start-1]
	headerIndent := len(header) - len(strings.TrimLeft(header, " \t"))

	end := start
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent <= headerIndent {
			break
		}
		end = i + 1
	}
	if end == start {
		return 0
	}
	return end
}

// paragraph extends from start to the line before the next blank line.
func paragraph(lines []string, start int) int {
	end := start
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			break
		}
		end = i + 1
	}
	return end
}
