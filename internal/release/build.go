package release

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuildMeta is the plugin description kept in build.yaml
type BuildMeta struct {
	Name        string   `yaml:"name"`
	GUID        string   `yaml:"guid"`
	Version     string   `yaml:"version"`
	TargetAbi   string   `yaml:"targetAbi"`
	Framework   string   `yaml:"framework"`
	Owner       string   `yaml:"owner"`
	Overview    string   `yaml:"overview"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Artifacts   []string `yaml:"artifacts"`
	Changelog   string   `yaml:"changelog"`
}

// LoadBuildMeta reads build.yaml
func LoadBuildMeta(path string) (*BuildMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build file: %w", err)
	}

	var meta BuildMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse build file: %w", err)
	}
	if meta.GUID == "" {
		return nil, fmt.Errorf("build file %s has no guid", path)
	}
	return &meta, nil
}

// UpdateChangelog replaces the changelog entry of build.yaml with the trimmed
// changelog. Files without a changelog key are left alone. The order and
// layout of every other key is kept. Reports whether the file was rewritten.
func UpdateChangelog(buildFile, changelog string) (bool, error) {
	data, err := os.ReadFile(buildFile)
	if err != nil {
		return false, fmt.Errorf("failed to read build file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("failed to parse build file: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return false, fmt.Errorf("build file %s is not a mapping", buildFile)
	}

	root := doc.Content[0]
	var value *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "changelog" {
			value = root.Content[i+1]
			break
		}
	}
	if value == nil {
		return false, nil
	}

	text := strings.TrimSpace(changelog)
	value.Kind = yaml.ScalarNode
	value.Tag = "!!str"
	value.Value = text
	value.Content = nil
	value.Style = 0
	if strings.Contains(text, "\n") {
		value.Style = yaml.LiteralStyle
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode build file: %w", err)
	}
	if err := os.WriteFile(buildFile, out, 0644); err != nil {
		return false, fmt.Errorf("failed to write build file: %w", err)
	}
	return true, nil
}
