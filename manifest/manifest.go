package manifest

import (
	"fmt"
	"os"

	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/markup"
)

const (
	// DefaultProjectID is used when project.id is missing or not a value.
	DefaultProjectID = "unknown"
	// DefaultStepName is used when a step has no usable name.
	DefaultStepName = "unnamed"
)

// Step is one declared unit of pipeline work.
type Step struct {
	// Index is the zero-based position in the steps list.
	Index int
	Name  string
	// Node is the step's metadata as written in the manifest. It is usually a
	// *markup.Mapping but may be any node when the list holds plain values.
	Node markup.Node
}

// Manifest is the semantic view of a parsed manifest document.
type Manifest struct {
	ProjectID string
	Steps     []Step
	Root      *markup.Mapping
}

// FromTree extracts the manifest view from a parsed document. Wrong shapes
// fall back to defaults rather than failing.
func FromTree(root *markup.Mapping) *Manifest {
	if root == nil {
		root = markup.NewMapping()
	}
	m := &Manifest{
		ProjectID: projectID(root),
		Root:      root,
	}

	steps, ok := root.Get("steps")
	if !ok {
		return m
	}
	seq, ok := steps.(*markup.Sequence)
	if !ok {
		return m
	}
	for i, node := range seq.Items() {
		m.Steps = append(m.Steps, Step{Index: i, Name: stepName(node), Node: node})
	}
	return m
}

func projectID(root *markup.Mapping) string {
	project, ok := root.Get("project")
	if !ok {
		return DefaultProjectID
	}
	switch p := project.(type) {
	case *markup.Mapping:
		if id, ok := scalarText(p, "id"); ok {
			return id
		}
		return DefaultProjectID
	default:
		return DefaultProjectID
	}
}

func stepName(node markup.Node) string {
	switch n := node.(type) {
	case *markup.Mapping:
		if name, ok := scalarText(n, "name"); ok {
			return name
		}
		return DefaultStepName
	default:
		return DefaultStepName
	}
}

// scalarText returns the text of m[key] when it is a non-null, non-empty
// scalar.
func scalarText(m *markup.Mapping, key string) (string, bool) {
	node, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := node.(markup.Scalar)
	if !ok || s.IsNull() || s.String() == "" {
		return "", false
	}
	return s.String(), true
}

// Parse builds a Manifest from manifest text. The error is a
// *markup.SyntaxError.
func Parse(text string) (*Manifest, error) {
	root, err := markup.Parse(text)
	if err != nil {
		return nil, err
	}
	return FromTree(root), nil
}

// Load reads and parses the manifest at path. Read failures carry
// FILE_ACCESS and parse failures MANIFEST_PARSE.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileAccess(path, err)
	}
	m, err := Parse(string(data))
	if err != nil {
		return nil, errors.ManifestParse(path, err)
	}
	return m, nil
}

// Check loads the manifest at path and reports problems that do not stop a
// run: unnamed steps and repeated step names.
func Check(path string) (*Manifest, []string, error) {
	m, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if m.ProjectID == DefaultProjectID {
		warnings = append(warnings, "project.id is missing")
	}
	if _, ok := m.Root.Get("steps"); ok && len(m.Steps) == 0 {
		warnings = append(warnings, "steps is not a list")
	}
	seen := make(map[string]int, len(m.Steps))
	for _, s := range m.Steps {
		if s.Name == DefaultStepName {
			warnings = append(warnings, fmt.Sprintf("step %d has no name", s.Index+1))
			continue
		}
		if first, dup := seen[s.Name]; dup {
			warnings = append(warnings, fmt.Sprintf("step %d repeats the name %q of step %d", s.Index+1, s.Name, first+1))
			continue
		}
		seen[s.Name] = s.Index
	}
	return m, warnings, nil
}
