package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/operation"
)

// OverrideFiles locates the optional YAML files that replace built-in
// advisory rules and operations.
type OverrideFiles struct {
	RulesPath      string
	OperationsPath string
}

// Rules loads RulesPath. found is false when the path is empty or absent.
func (o OverrideFiles) Rules() (advisory.RuleSet, bool, error) {
	if o.RulesPath == "" {
		return advisory.RuleSet{}, false, nil
	}
	return LoadRules(o.RulesPath)
}

// Operations loads OperationsPath. found is false when the path is empty or absent.
func (o OverrideFiles) Operations() (*operation.Catalog, bool, error) {
	if o.OperationsPath == "" {
		return nil, false, nil
	}
	return LoadOperations(o.OperationsPath)
}

// LoadRules reads an advisory rules file. found is false when the file does
// not exist, in which case the caller keeps the built-in rules.
func LoadRules(path string) (set advisory.RuleSet, found bool, err error) {
	var doc yamlRulesFile
	found, err = decodeYAMLFile(path, &doc)
	if err != nil || !found {
		return advisory.RuleSet{}, found, err
	}

	for i, r := range doc.Rules {
		if r.Category == "" {
			return advisory.RuleSet{}, true, fmt.Errorf("%s: rule %d: category is required", path, i)
		}
		if len(r.Contains) == 0 {
			return advisory.RuleSet{}, true, fmt.Errorf("%s: rule %d (%s): contains must list at least one keyword", path, i, r.Category)
		}
		set.Rules = append(set.Rules, toRule(r))
	}
	if doc.Default != nil {
		def := toRule(*doc.Default)
		set.Default = &def
	}
	return set, true, nil
}

func toRule(r yamlRule) advisory.Rule {
	return advisory.Rule{
		Category: r.Category,
		Contains: r.Contains,
		When:     r.When,
		Engine:   r.Engine,
		Template: r.Template,
	}
}

// LoadOperations reads an operations catalog file. found is false when the
// file does not exist.
func LoadOperations(path string) (cat *operation.Catalog, found bool, err error) {
	var doc yamlOperationsFile
	found, err = decodeYAMLFile(path, &doc)
	if err != nil || !found {
		return nil, found, err
	}

	ops := make([]operation.Operation, 0, len(doc.Operations))
	for _, o := range doc.Operations {
		ops = append(ops, operation.Operation{
			Code:        o.Code,
			Description: o.Description,
			Temperature: o.Temperature,
			Scripts:     o.Scripts,
		})
	}
	cat, err = operation.NewCatalog(ops)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	return cat, true, nil
}

// decodeYAMLFile expands !include references relative to path, then decodes
// strictly into out.
func decodeYAMLFile(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return true, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return true, nil
	}
	dir := filepath.Dir(path)
	if err := (includeExpander{root: dir}).expand(&doc, dir, 0); err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	expanded, err := yaml.Marshal(&doc)
	if err != nil {
		return true, fmt.Errorf("failed to re-encode %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return true, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	return true, nil
}
