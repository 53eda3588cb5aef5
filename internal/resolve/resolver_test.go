package resolve

import (
	"context"
	"strings"
	"testing"

	"ucdocs/internal/annotation"
)

func resolveOne(t *testing.T, file, lang, src string) Span {
	t.Helper()
	anns, problems := annotation.Parse(file, lang, []byte(src))
	if len(problems) != 0 {
		t.Fatalf("parse problems: %v", problems)
	}
	if len(anns) != 1 {
		t.Fatalf("got %d annotations, want 1", len(anns))
	}

	r := NewResolver()
	defer r.Close()

	span, err := r.Resolve(context.Background(), anns[0], []byte(src))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return span
}

func TestResolveGoFunction(t *testing.T) {
	src := `package main

import "database/sql"

// @unsafe[raw-query]
// title: String-built SQL
func login(db *sql.DB, user string) error {
	q := "SELECT * FROM users WHERE name = '" + user + "'"
	_, err := db.Exec(q)
	return err
}

func helper() {}
`
	span := resolveOne(t, "main.go", "go", src)
	if span.StartLine != 7 || span.EndLine != 11 {
		t.Errorf("span = %d-%d, want 7-11", span.StartLine, span.EndLine)
	}
	if !strings.Contains(span.Code, "func login") {
		t.Errorf("code does not contain the function header:\n%s", span.Code)
	}
	if strings.Contains(span.Code, "helper") {
		t.Errorf("code should not include the following function:\n%s", span.Code)
	}
}

func TestResolvePythonDecoratedFunction(t *testing.T) {
	src := `import pickle

# @unsafe[pickle-route]
@app.route("/load", methods=["POST"])
def load():
    data = request.get_data()
    return pickle.loads(data)
`
	span := resolveOne(t, "app.py", "python", src)
	if span.StartLine != 4 {
		t.Errorf("StartLine = %d, want 4 (decorator included)", span.StartLine)
	}
	if !strings.Contains(span.Code, "@app.route") {
		t.Errorf("decorator missing from span:\n%s", span.Code)
	}
	if !strings.Contains(span.Code, "pickle.loads") {
		t.Errorf("body missing from span:\n%s", span.Code)
	}
}

func TestResolveBlockSpan(t *testing.T) {
	src := `package main

func handler() {
	// @unsafe[tainted-path]

	name := r.URL.Query().Get("file")
	data, _ := os.ReadFile("/srv/files/" + name)

	// @/unsafe[tainted-path]
	_ = data
}
`
	span := resolveOne(t, "main.go", "go", src)
	if span.StartLine != 6 || span.EndLine != 7 {
		t.Errorf("span = %d-%d, want 6-7 (blank edges trimmed)", span.StartLine, span.EndLine)
	}
}

func TestResolveHeuristicBraceMatch(t *testing.T) {
	src := `#include <string.h>

// @unsafe[stack-overflow]
// title: Fixed buffer, unbounded copy
void greet(char *name) {
	char buf[16];
	strcpy(buf, name);
}
`
	span := resolveOne(t, "greet.c", "c", src)
	if span.StartLine != 5 || span.EndLine != 8 {
		t.Errorf("span = %d-%d, want 5-8", span.StartLine, span.EndLine)
	}
}

func TestResolveHeuristicIndentBlock(t *testing.T) {
	src := `# deploy helpers

# @unsafe[curl-pipe]
install() {
  curl -s http://example.com/install.sh | sh
}
`
	span := resolveOne(t, "deploy.sh", "shell", src)
	if span.StartLine != 4 || span.EndLine != 5 {
		t.Errorf("span = %d-%d, want 4-5", span.StartLine, span.EndLine)
	}
}

func TestResolveEmptyBlockFails(t *testing.T) {
	src := "// @unsafe[empty]\n// @/unsafe[empty]\nfunc f() {}\n"
	anns, _ := annotation.Parse("main.go", "go", []byte(src))
	if len(anns) != 1 || !anns[0].Block {
		t.Fatalf("expected one block annotation, got %+v", anns)
	}

	r := NewResolver()
	defer r.Close()

	if _, err := r.Resolve(context.Background(), anns[0], []byte(src)); err == nil {
		t.Error("empty block should fail to resolve")
	}
}

func TestResolveNoDefinitionFails(t *testing.T) {
	src := "package main\n\nvar x = 1\n\n// @unsafe[trailing]\n"
	anns, _ := annotation.Parse("main.go", "go", []byte(src))
	if len(anns) != 1 {
		t.Fatalf("got %d annotations, want 1", len(anns))
	}

	r := NewResolver()
	defer r.Close()

	if _, err := r.Resolve(context.Background(), anns[0], []byte(src)); err == nil {
		t.Error("annotation with no following code should fail to resolve")
	}
}
