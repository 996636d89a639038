package docs

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	bashSetup = "bash setup"
	bashCheck = "bash check"
)

// TestTopics checks that the readme lists exactly the topic files.
func TestTopics(t *testing.T) {
	content, err := os.ReadFile("readme.md")
	if err != nil {
		t.Fatalf("failed to read readme.md: %v", err)
	}
	topicRE := regexp.MustCompile(`(?m)^\*\s+([a-z-]+):`)
	var listed []string
	for _, m := range topicRE.FindAllStringSubmatch(string(content), -1) {
		listed = append(listed, m[1])
	}
	slices.Sort(listed)

	all, err := All()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(listed, all) {
		t.Errorf("readme.md lists %v, want %v", listed, all)
	}

	for _, topic := range all {
		if _, err := Topic(topic); err != nil {
			t.Errorf("Topic(%q) failed: %v", topic, err)
		}
	}
	if _, err := Topic("nope"); err == nil {
		t.Error("Topic(\"nope\") should fail")
	}

	every, err := Topic("*")
	if err != nil {
		t.Fatal(err)
	}
	for _, heading := range []string{"# Journal", "# Sync", "# Configuration"} {
		if !strings.Contains(every, heading) {
			t.Errorf("Topic(\"*\") is missing %q", heading)
		}
	}
}

// TestCodeBlocks runs the shell blocks of every topic against a freshly built cj.
func TestCodeBlocks(t *testing.T) {
	if testing.Short() {
		t.Skip("builds cj")
	}
	bin := filepath.Join(t.TempDir(), "cj")
	build := exec.Command("go", "build", "-o", bin, "../cj/")
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build cj: %v\n%s", err, out)
	}

	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			env := append(os.Environ(),
				"PATH="+filepath.Dir(bin)+string(os.PathListSeparator)+os.Getenv("PATH"),
				"XDG_CONFIG_HOME="+t.TempDir(),
				"CJ_STORE_DIR=store",
				"CJ_OFFLINE=true",
			)
			dir := t.TempDir()
			for _, b := range codeBlocks(t, file) {
				if b.kind == bashSetup {
					dir = t.TempDir()
				}
				cmd := exec.Command("bash", "-c", "set -e; "+b.content)
				cmd.Dir = dir
				cmd.Env = env
				out, err := cmd.CombinedOutput()
				if err == nil {
					continue
				}
				if b.kind == bashSetup {
					t.Fatalf("%s:%d: setup failed: %v\n%s", file, b.line, err, out)
				}
				t.Errorf("%s:%d: check failed: %v\n%s", file, b.line, err, out)
			}
		})
	}
}

type block struct {
	kind    string
	content string
	line    int
}

// codeBlocks returns the fenced blocks of file tagged as setup or check.
func codeBlocks(t *testing.T, file string) []block {
	t.Helper()
	source, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var blocks []block
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		kind := string(fcb.Info.Segment.Value(source))
		if kind != bashSetup && kind != bashCheck {
			return ast.WalkContinue, nil
		}
		var content strings.Builder
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			content.Write(line.Value(source))
		}
		blocks = append(blocks, block{
			kind:    kind,
			content: content.String(),
			line:    bytes.Count(source[:fcb.Info.Segment.Start], []byte("\n")) + 1,
		})
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return blocks
}
