package preview

import (
	"strings"
	"testing"

	"github.com/richinex/zerb/project"
)

func build(t *testing.T, files ...project.File) string {
	t.Helper()
	doc, err := Build(files)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return doc
}

func TestBuildInjectsStylesAndScripts(t *testing.T) {
	doc := build(t,
		project.File{Name: "index.html", Content: "<html><head><title>x</title></head><body><div id=\"root\"></div></body></html>"},
		project.File{Name: "style.css", Content: "body{color:red}"},
		project.File{Name: "App.tsx", Content: "render(<App/>)"},
		project.File{Name: "notes.md", Content: "ignored"},
	)

	if !strings.Contains(doc, `<style data-filename="style.css">body{color:red}</style></head>`) {
		t.Errorf("stylesheet not injected before </head>:\n%s", doc)
	}
	if !strings.Contains(doc, `data-filename="App.tsx"`) || !strings.Contains(doc, `console.error("Error in App.tsx:", e);`) {
		t.Errorf("script not wrapped for babel:\n%s", doc)
	}
	if strings.Index(doc, babelScript) > strings.Index(doc, `data-filename="App.tsx"`) {
		t.Error("babel loader must precede the scripts")
	}
	if !strings.Contains(doc, "<head>"+tailwindScript) {
		t.Error("tailwind should be injected after <head>")
	}
	if strings.Contains(doc, "ignored") {
		t.Error("unrelated files must not be injected")
	}
}

func TestBuildKeepsExistingTailwind(t *testing.T) {
	doc := build(t, project.File{
		Name:    "index.html",
		Content: `<html><head><script src="https://cdn.tailwindcss.com"></script></head><body></body></html>`,
	})
	if strings.Count(doc, "tailwindcss.com") != 1 {
		t.Errorf("tailwind should not be added twice:\n%s", doc)
	}
}

func TestBuildUsesFirstHTMLFile(t *testing.T) {
	doc := build(t,
		project.File{Name: "about.html", Content: "<html><head></head><body>about</body></html>"},
		project.File{Name: "index.html", Content: "<html><head></head><body>index</body></html>"},
	)
	if !strings.Contains(doc, "about") || strings.Contains(doc, ">index<") {
		t.Errorf("expected the first html file, got:\n%s", doc)
	}
}

func TestBuildPythonSimulation(t *testing.T) {
	doc := build(t,
		project.File{Name: "main.py", Content: "print(1)"},
		project.File{Name: "util.py", Content: ""},
	)
	if !strings.Contains(doc, "System Simulation: main.py") {
		t.Errorf("expected simulation page for main.py:\n%s", doc)
	}
	if !strings.Contains(doc, "&gt;&gt;&gt; Backend services ready.") {
		t.Error("expected simulation output lines")
	}
}

func TestBuildNoDocument(t *testing.T) {
	if doc := build(t, project.File{Name: "a.js", Content: "x"}); doc != noDocumentPage {
		t.Errorf("expected placeholder page, got:\n%s", doc)
	}
	if doc := build(t); doc != noDocumentPage {
		t.Errorf("expected placeholder page for empty project, got:\n%s", doc)
	}
}
