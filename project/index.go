package project

import (
	"sort"

	"github.com/armon/go-radix"
)

// nameIndex maps file names to their position in the project. Names share
// long directory prefixes, which a radix tree stores once.
type nameIndex struct {
	tree *radix.Tree
}

func newNameIndex() nameIndex {
	return nameIndex{tree: radix.New()}
}

func (x nameIndex) get(name string) (int, bool) {
	v, ok := x.tree.Get(name)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

func (x nameIndex) set(name string, pos int) {
	x.tree.Insert(name, pos)
}

func (x nameIndex) remove(name string) {
	x.tree.Delete(name)
}

// withPrefix returns the positions of every name starting with prefix, in
// ascending order.
func (x nameIndex) withPrefix(prefix string) []int {
	var positions []int
	x.tree.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		positions = append(positions, v.(int))
		return false
	})
	sort.Ints(positions)
	return positions
}

// WithPrefix returns the files whose name starts with prefix, in project
// order. An empty prefix matches every file.
func (p *Project) WithPrefix(prefix string) []File {
	positions := p.index.withPrefix(prefix)
	out := make([]File, len(positions))
	for i, pos := range positions {
		out[i] = p.files[pos]
	}
	return out
}
