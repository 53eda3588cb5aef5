package annotation

import "strings"

// commentStyle describes how comments are written in a language.
type commentStyle struct {
	line  []string    // line comment leaders, e.g. "//", "#"
	block [][2]string // block comment open/close pairs
}

var styles = map[string]commentStyle{
	"go":         {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"javascript": {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"typescript": {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"rust":       {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"java":       {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"kotlin":     {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"c":          {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"cpp":        {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"csharp":     {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"swift":      {line: []string{"//"}, block: [][2]string{{"/*", "*/"}}},
	"php":        {line: []string{"//", "#"}, block: [][2]string{{"/*", "*/"}}},
	"python":     {line: []string{"#"}},
	"ruby":       {line: []string{"#"}},
	"shell":      {line: []string{"#"}},
	"dockerfile": {line: []string{"#"}},
	"makefile":   {line: []string{"#"}},
	"sql":        {line: []string{"--"}},
	"lua":        {line: []string{"--"}},
	"html":       {block: [][2]string{{"<!--", "-->"}}},
	"css":        {block: [][2]string{{"/*", "*/"}}},
}

// styleFor returns the comment style for a language, or false if the
// language has no comment syntax we understand.
func styleFor(lang string) (commentStyle, bool) {
	s, ok := styles[lang]
	return s, ok
}

// commentLine is one stripped line of comment text.
type commentLine struct {
	lineNo int    // 1-based source line
	text   string // content with comment leaders removed
}

// commentRun is a maximal sequence of adjacent comment lines (a line comment
// run, or the interior of a single block comment).
type commentRun struct {
	lines []commentLine
}

// extractRuns splits source content into comment runs for the given style.
func extractRuns(content string, style commentStyle) []commentRun {
	lines := strings.Split(content, "\n")
	var runs []commentRun
	var current *commentRun

	flush := func() {
		if current != nil && len(current.lines) > 0 {
			runs = append(runs, *current)
		}
		current = nil
	}

	inBlock := false
	var blockClose string

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		if inBlock {
			if idx := strings.Index(trimmed, blockClose); idx >= 0 {
				text := strings.TrimSpace(trimmed[:idx])
				if t, ok := stripBlockDecoration(text); ok {
					current.lines = append(current.lines, commentLine{lineNo, t})
				}
				inBlock = false
				flush()
				continue
			}
			if t, ok := stripBlockDecoration(trimmed); ok {
				current.lines = append(current.lines, commentLine{lineNo, t})
			} else {
				current.lines = append(current.lines, commentLine{lineNo, trimmed})
			}
			continue
		}

		// Block comment opener on its own line (or leading the line)
		opened := false
		for _, pair := range style.block {
			if strings.HasPrefix(trimmed, pair[0]) {
				rest := strings.TrimSpace(trimmed[len(pair[0]):])
				flush()
				current = &commentRun{}
				if idx := strings.Index(rest, pair[1]); idx >= 0 {
					// Single-line block comment
					text := strings.TrimSpace(rest[:idx])
					if text != "" {
						current.lines = append(current.lines, commentLine{lineNo, text})
					}
					flush()
				} else {
					if rest != "" {
						current.lines = append(current.lines, commentLine{lineNo, rest})
					}
					inBlock = true
					blockClose = pair[1]
				}
				opened = true
				break
			}
		}
		if opened {
			continue
		}

		matched := false
		for _, leader := range style.line {
			if strings.HasPrefix(trimmed, leader) {
				text := trimmed[len(leader):]
				// Drop exactly one leading space so YAML indentation survives
				text = strings.TrimPrefix(text, " ")
				if current == nil {
					current = &commentRun{}
				}
				current.lines = append(current.lines, commentLine{lineNo, text})
				matched = true
				break
			}
		}
		if !matched {
			flush()
		}
	}
	flush()

	return runs
}

// stripBlockDecoration removes the conventional leading "* " from block
// comment interiors. Returns false when the line is only decoration.
func stripBlockDecoration(text string) (string, bool) {
	if text == "*" {
		return "", false
	}
	if strings.HasPrefix(text, "* ") {
		return text[2:], true
	}
	if strings.HasPrefix(text, "*") {
		return text[1:], true
	}
	return text, true
}
