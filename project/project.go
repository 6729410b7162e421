// Package project holds the files the assistant has produced for a session.
//
// A Project is an ordered mapping from file name to file. Streamed file
// blocks are merged into it by name: an existing entry is overwritten, a new
// one is appended and becomes the active file.
package project

import "github.com/richinex/zerb/extract"

// File is one project file as shown in the editor.
type File struct {
	Name     string `json:"name" yaml:"name"`
	Language string `json:"language" yaml:"language"`
	Content  string `json:"content" yaml:"content"`
}

// Project is not safe for concurrent use.
type Project struct {
	files  []File
	index  nameIndex
	active string
}

// New creates an empty project.
func New() *Project {
	return &Project{index: newNameIndex()}
}

// IndexFile is the page the preview renders.
const IndexFile = "index.html"

// Default creates the seed project a fresh session starts with.
func Default() *Project {
	p := New()
	p.Upsert(File{Name: IndexFile, Language: "html", Content: seedIndexHTML})
	return p
}

const seedIndexHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Zerb App</title>
</head>
<body class="bg-neutral-50 flex items-center justify-center h-screen font-sans">
  <div class="text-center p-8 bg-white rounded-2xl shadow-sm border border-neutral-100">
    <h1 class="text-2xl font-bold text-neutral-800">System Ready</h1>
    <p class="text-neutral-500 mt-2">Architecture Engine is online and waiting for instructions.</p>
  </div>
</body>
</html>`

// FromFiles builds a project from stored files. Later duplicates overwrite
// earlier ones. The active name is kept only if such a file exists.
func FromFiles(files []File, active string) *Project {
	p := New()
	for _, f := range files {
		p.Upsert(f)
	}
	p.active = ""
	if _, ok := p.index.get(active); ok {
		p.active = active
	}
	return p
}

// Upsert inserts or overwrites a file by name and reports whether it was
// inserted. Inserted files become active.
func (p *Project) Upsert(f File) bool {
	if i, ok := p.index.get(f.Name); ok {
		p.files[i].Language = f.Language
		p.files[i].Content = f.Content
		return false
	}
	p.index.set(f.Name, len(p.files))
	p.files = append(p.files, f)
	p.active = f.Name
	return true
}

// Apply merges streamed blocks in scan order and returns the names that were
// newly inserted. When a name repeats, the block later in scan order wins.
func (p *Project) Apply(blocks []extract.FileBlock) []string {
	var inserted []string
	for _, b := range blocks {
		if p.Upsert(File{Name: b.Name, Language: b.Language, Content: b.Content}) {
			inserted = append(inserted, b.Name)
		}
	}
	return inserted
}

// Get returns the file with the given name.
func (p *Project) Get(name string) (File, bool) {
	i, ok := p.index.get(name)
	if !ok {
		return File{}, false
	}
	return p.files[i], true
}

// Files returns a copy of all files in insertion order.
func (p *Project) Files() []File {
	out := make([]File, len(p.files))
	copy(out, p.files)
	return out
}

// Names returns file names in insertion order.
func (p *Project) Names() []string {
	out := make([]string, len(p.files))
	for i, f := range p.files {
		out[i] = f.Name
	}
	return out
}

// Len returns the number of files.
func (p *Project) Len() int {
	return len(p.files)
}

// Active returns the active file name, which may be empty.
func (p *Project) Active() string {
	return p.active
}

// ActiveFile returns the active file, falling back to the first file.
func (p *Project) ActiveFile() (File, bool) {
	if f, ok := p.Get(p.active); ok {
		return f, true
	}
	if len(p.files) > 0 {
		return p.files[0], true
	}
	return File{}, false
}

// SetActive selects a file and reports whether it exists.
func (p *Project) SetActive(name string) bool {
	if _, ok := p.index.get(name); !ok {
		return false
	}
	p.active = name
	return true
}

// SetContent replaces the content of an existing file.
func (p *Project) SetContent(name, content string) bool {
	i, ok := p.index.get(name)
	if !ok {
		return false
	}
	p.files[i].Content = content
	return true
}

// Remove deletes a file and reports whether it existed. Removing the active
// file clears the selection.
func (p *Project) Remove(name string) bool {
	i, ok := p.index.get(name)
	if !ok {
		return false
	}
	p.files = append(p.files[:i], p.files[i+1:]...)
	p.index.remove(name)
	for j := i; j < len(p.files); j++ {
		p.index.set(p.files[j].Name, j)
	}
	if p.active == name {
		p.active = ""
	}
	return true
}

// Clone returns an independent copy.
func (p *Project) Clone() *Project {
	return FromFiles(p.files, p.active)
}
