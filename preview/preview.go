// Package preview composes a single self-contained HTML document from the
// project files, for opening in a browser.
package preview

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/richinex/zerb/project"
)

const (
	tailwindScript = `<script src="https://cdn.tailwindcss.com"></script>`
	babelScript    = `<script src="https://unpkg.com/@babel/standalone/babel.min.js"></script>`
)

const noDocumentPage = `<html><body style="font-family: sans-serif; display: flex; align-items: center; justify-content: center; height: 100vh; color: #666;">No index.html found.</body></html>`

var simulationPage = template.Must(template.New("simulation").Parse(`
<html>
  <head>` + tailwindScript + `</head>
  <body class="bg-neutral-900 text-emerald-400 p-8 font-mono text-sm leading-relaxed">
    <div class="mb-4 text-neutral-500 flex items-center gap-2">
      <div class="w-3 h-3 rounded-full bg-red-500"></div>
      <div class="w-3 h-3 rounded-full bg-yellow-500"></div>
      <div class="w-3 h-3 rounded-full bg-green-500"></div>
      <span class="ml-2">System Simulation: {{.}}</span>
    </div>
    <div class="border-t border-neutral-800 pt-4">
      <p class="text-neutral-500"># Zerb Architecture Simulation</p>
      <p class="mt-4">&gt;&gt;&gt; Logic analysis complete.</p>
      <p>&gt;&gt;&gt; Backend services ready.</p>
    </div>
  </body>
</html>
`))

var scriptSuffixes = []string{".js", ".ts", ".tsx", ".jsx"}

func isScript(name string) bool {
	for _, suffix := range scriptSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Build returns the preview document. The first .html file is the page;
// stylesheets and scripts from the other files are injected into it.
// Without a page, Python projects get a simulation screen and anything
// else a placeholder.
func Build(files []project.File) (string, error) {
	var page *project.File
	var styles, scripts, python []project.File
	for i, f := range files {
		switch {
		case strings.HasSuffix(f.Name, ".html"):
			if page == nil {
				page = &files[i]
			}
		case strings.HasSuffix(f.Name, ".css"):
			styles = append(styles, f)
		case isScript(f.Name):
			scripts = append(scripts, f)
		case strings.HasSuffix(f.Name, ".py"):
			python = append(python, f)
		}
	}

	if page == nil {
		if len(python) == 0 {
			return noDocumentPage, nil
		}
		var buf bytes.Buffer
		if err := simulationPage.Execute(&buf, python[0].Name); err != nil {
			return "", fmt.Errorf("rendering simulation page: %w", err)
		}
		return buf.String(), nil
	}

	content := page.Content

	css := make([]string, len(styles))
	for i, f := range styles {
		css[i] = fmt.Sprintf(`<style data-filename="%s">%s</style>`, html.EscapeString(f.Name), f.Content)
	}
	content = strings.Replace(content, "</head>", strings.Join(css, "\n")+"</head>", 1)

	js := make([]string, len(scripts))
	for i, f := range scripts {
		js[i] = babelBlock(f)
	}
	content = strings.Replace(content, "</body>",
		"\n"+babelScript+"\n"+strings.Join(js, "\n")+"\n</body>", 1)

	if !strings.Contains(content, "tailwindcss.com") {
		content = strings.Replace(content, "<head>", "<head>"+tailwindScript, 1)
	}
	return content, nil
}

// babelBlock wraps a script so one failing file does not stop the others.
func babelBlock(f project.File) string {
	name := html.EscapeString(f.Name)
	return fmt.Sprintf(`<script type="text/babel" data-filename="%s" data-presets="react,typescript">
try {
%s
} catch (e) {
  console.error("Error in %s:", e);
}
</script>`, name, f.Content, name)
}
