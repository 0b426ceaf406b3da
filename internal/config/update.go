package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteDefault writes DefaultConfig to path. It refuses to overwrite an
// existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return Save(path, DefaultConfig())
}

// Save encodes cfg as YAML at path, creating parent directories.
func Save(path string, cfg *Config) error {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	encoder.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// AppendToList appends value to the sequence at a dotted key such as
// "filters.domains". Missing mappings and the sequence itself are created.
// It preserves the existing YAML structure and comments and does nothing if
// value is already present.
func AppendToList(configPath, dottedKey, value string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	keys := strings.Split(dottedKey, ".")
	for i, key := range keys {
		last := i == len(keys)-1
		next := findMapValue(node, key)
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			if last {
				next = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, next)
		}
		// "domains: []" or "domains:" decode as an empty flow seq or null scalar.
		if last && next.Kind == yaml.ScalarNode && next.Tag == "!!null" {
			next.Kind = yaml.SequenceNode
			next.Tag = "!!seq"
			next.Value = ""
		}
		if last && next.Kind != yaml.SequenceNode {
			return fmt.Errorf("'%s' is not a list", dottedKey)
		}
		if !last && next.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is not a mapping", strings.Join(keys[:i+1], "."))
		}
		node = next
	}

	for _, item := range node.Content {
		if item.Kind == yaml.ScalarNode && item.Value == value {
			return nil
		}
	}
	node.Style = 0
	node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
