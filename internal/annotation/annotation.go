// Package annotation parses @unsafe markers embedded in source comments.
//
// An annotation opens with `@unsafe[<id>]` inside a comment. The remaining
// lines of the same comment run carry YAML metadata:
//
//	// @unsafe[login-sqli]
//	// title: Login bypass via string-built SQL
//	// http: requests/login.http
//	// notes: |
//	//   The query concatenates raw user input.
//
// Without a closing marker the annotation quotes the next function or class
// definition. With a matching `@/unsafe[<id>]` later in the file it quotes
// the block of lines between the two markers instead.
package annotation

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	openRe  = regexp.MustCompile(`@unsafe\[([^\]]*)\]`)
	closeRe = regexp.MustCompile(`@/unsafe\[([^\]]*)\]`)
	idRe    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Annotation is a parsed @unsafe marker with its metadata.
type Annotation struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Notes string `yaml:"notes"`
	HTTP  string `yaml:"http"`
	Part  int    `yaml:"part"` // 0 means unset (single part)

	File       string `yaml:"file"`        // workspace-relative
	Language   string `yaml:"language"`    //
	Line       int    `yaml:"line"`        // opener marker line, 1-based
	MetaEnd    int    `yaml:"meta_end"`    // last line of the annotation comment run
	Block      bool   `yaml:"block"`       // closer found
	CloserLine int    `yaml:"closer_line"` // 0 when not a block
}

// PartNumber returns the effective part number (unset counts as 1).
func (a *Annotation) PartNumber() int {
	if a.Part == 0 {
		return 1
	}
	return a.Part
}

// metadata is the YAML payload following the opener.
type metadata struct {
	Title string `yaml:"title"`
	Notes string `yaml:"notes"`
	HTTP  string `yaml:"http"`
	Part  int    `yaml:"part"`
}

// Problem is a parse finding tied to a source location.
type Problem struct {
	File    string
	Line    int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s:%d: %s", p.File, p.Line, p.Message)
}

// Supported reports whether files of the given language are parsed.
func Supported(lang string) bool {
	_, ok := styleFor(lang)
	return ok
}

// Parse extracts all annotations from one file's content.
// Problems are collected rather than aborting so one bad marker doesn't hide
// the rest of the file.
func Parse(file, lang string, content []byte) ([]Annotation, []Problem) {
	style, ok := styleFor(lang)
	if !ok {
		return nil, nil
	}

	var anns []Annotation
	var problems []Problem

	runs := extractRuns(string(content), style)

	type closer struct {
		id   string
		line int
	}
	var closerMarks []closer

	for _, run := range runs {
		for i, cl := range run.lines {
			if m := closeRe.FindStringSubmatch(cl.text); m != nil {
				id := m[1]
				if !idRe.MatchString(id) {
					problems = append(problems, Problem{file, cl.lineNo,
						fmt.Sprintf("invalid annotation id %q in closing marker", id)})
					continue
				}
				closerMarks = append(closerMarks, closer{id, cl.lineNo})
				continue
			}

			m := openRe.FindStringSubmatch(cl.text)
			if m == nil {
				continue
			}
			id := m[1]
			if !idRe.MatchString(id) {
				problems = append(problems, Problem{file, cl.lineNo,
					fmt.Sprintf("invalid annotation id %q (want lowercase letters, digits, hyphens)", id)})
				continue
			}

			ann := Annotation{
				ID:       id,
				File:     file,
				Language: lang,
				Line:     cl.lineNo,
				MetaEnd:  cl.lineNo,
			}

			// Remaining lines of this run form the YAML payload
			if i+1 < len(run.lines) {
				meta, metaEnd, err := parseMetadata(run.lines[i+1:])
				if err != nil {
					problems = append(problems, Problem{file, cl.lineNo,
						fmt.Sprintf("bad annotation metadata: %v", err)})
					continue
				}
				ann.Title = meta.Title
				ann.Notes = strings.TrimRight(meta.Notes, "\n")
				ann.HTTP = meta.HTTP
				ann.Part = meta.Part
				if metaEnd > 0 {
					ann.MetaEnd = metaEnd
				}
			}

			if ann.Part < 0 {
				problems = append(problems, Problem{file, cl.lineNo,
					fmt.Sprintf("negative part number %d", ann.Part)})
				continue
			}

			anns = append(anns, ann)
		}
	}

	// Attach each closer to the nearest preceding unclaimed opener with the
	// same id.
	for _, c := range closerMarks {
		best := -1
		for i := range anns {
			if anns[i].ID != c.id || anns[i].Block || anns[i].Line >= c.line {
				continue
			}
			if best == -1 || anns[i].Line > anns[best].Line {
				best = i
			}
		}
		if best == -1 {
			problems = append(problems, Problem{file, c.line,
				fmt.Sprintf("closing marker for %q has no opener", c.id)})
			continue
		}
		anns[best].Block = true
		anns[best].CloserLine = c.line
	}

	// Block ranges must be disjoint or strictly nested. Interleaved markers
	// mean a closer landed in the wrong place.
	for i := range anns {
		if !anns[i].Block {
			continue
		}
		for j := i + 1; j < len(anns); j++ {
			if !anns[j].Block {
				continue
			}
			if anns[i].Line < anns[j].Line && anns[j].Line < anns[i].CloserLine && anns[i].CloserLine < anns[j].CloserLine {
				problems = append(problems, Problem{file, anns[j].Line,
					fmt.Sprintf("block markers for %q and %q overlap without nesting", anns[j].ID, anns[i].ID)})
			}
		}
	}

	return anns, problems
}

// parseMetadata decodes the YAML payload from the stripped comment lines
// following an opener. It returns the last source line consumed.
func parseMetadata(lines []commentLine) (metadata, int, error) {
	var meta metadata
	if len(lines) == 0 {
		return meta, 0, nil
	}

	var b strings.Builder
	end := 0
	for _, cl := range lines {
		// Another marker in the same run ends this annotation's payload
		if openRe.MatchString(cl.text) || closeRe.MatchString(cl.text) {
			break
		}
		b.WriteString(cl.text)
		b.WriteByte('\n')
		end = cl.lineNo
	}

	if strings.TrimSpace(b.String()) == "" {
		return meta, end, nil
	}

	if err := yaml.Unmarshal([]byte(b.String()), &meta); err != nil {
		return meta, end, err
	}
	return meta, end, nil
}
