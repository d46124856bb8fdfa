package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	includeTag        = "!include"
	maxIncludeNesting = 5
)

// includeExpander replaces !include nodes in override files. A reference to
// a .yaml/.yml file splices the parsed document; anything else becomes a
// string scalar, which lets long advisory templates live in their own files.
// References are relative to the including file and must stay under root.
type includeExpander struct {
	root string
}

func (e includeExpander) expand(node *yaml.Node, dir string, depth int) error {
	if node == nil {
		return nil
	}
	if depth > maxIncludeNesting {
		return fmt.Errorf("%s nested deeper than %d levels", includeTag, maxIncludeNesting)
	}
	if node.Tag == includeTag {
		return e.splice(node, dir, depth)
	}
	for _, child := range node.Content {
		if err := e.expand(child, dir, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e includeExpander) splice(node *yaml.Node, dir string, depth int) error {
	ref := strings.TrimSpace(node.Value)
	if ref == "" {
		return fmt.Errorf("line %d: %s needs a file name", node.Line, includeTag)
	}
	if filepath.IsAbs(ref) {
		return fmt.Errorf("line %d: %s %q: absolute paths are not allowed", node.Line, includeTag, ref)
	}

	path := filepath.Join(dir, ref)
	if err := e.contained(path); err != nil {
		return fmt.Errorf("line %d: %s %q: %w", node.Line, includeTag, ref, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("line %d: %s %q: %w", node.Line, includeTag, ref, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing included %s: %w", path, err)
		}
		if err := e.expand(&doc, filepath.Dir(path), depth+1); err != nil {
			return err
		}
		if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
			return fmt.Errorf("included %s is empty", path)
		}
		*node = *doc.Content[0]
	default:
		*node = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(data)}
	}
	return nil
}

func (e includeExpander) contained(path string) error {
	root, err := filepath.EvalSymlinks(e.root)
	if err != nil {
		root = e.root
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.New("path escapes the data directory")
	}
	return nil
}
