package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawNode is one source entry before decoding. Err is set when the entry
// could not even be parsed; Node is nil in that case.
type RawNode struct {
	Index int
	Node  *yaml.Node
	Err   error
}

var containerKeys = []string{"data", "plants", "items", "allItems"}

func ReadSource(path string) ([]RawNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog source: %w", err)
	}
	return ParseSource(filepath.Base(path), data)
}

// ParseSource splits a catalog document into raw entries. JSON and YAML
// documents are parsed whole; JavaScript data files (or JSON that fails to
// parse) are split element by element so one broken entry does not hide the
// others.
func ParseSource(name string, data []byte) ([]RawNode, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		nodes, err := parseDocument(data)
		if err == nil {
			return nodes, nil
		}
		if fallback, ferr := parseLiteral(string(data)); ferr == nil {
			return fallback, nil
		}
		return nil, err
	default:
		return parseLiteral(string(data))
	}
}

func parseDocument(data []byte) ([]RawNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("catalog document is empty")
	}

	seq := findSequence(resolveAlias(doc.Content[0]))
	if seq == nil {
		return nil, errors.New("catalog document has no entry list")
	}

	nodes := make([]RawNode, 0, len(seq.Content))
	for i, child := range seq.Content {
		nodes = append(nodes, RawNode{Index: i + 1, Node: resolveAlias(child)})
	}
	return nodes, nil
}

func findSequence(node *yaml.Node) *yaml.Node {
	switch node.Kind {
	case yaml.SequenceNode:
		return node
	case yaml.MappingNode:
		for _, key := range containerKeys {
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == key {
					if v := resolveAlias(node.Content[i+1]); v.Kind == yaml.SequenceNode {
						return v
					}
				}
			}
		}
	}
	return nil
}

func parseLiteral(content string) ([]RawNode, error) {
	body, err := extractArray(content)
	if err != nil {
		return nil, err
	}

	elements := splitElements(body)
	nodes := make([]RawNode, 0, len(elements))
	for i, element := range elements {
		node, err := parseElement(element)
		nodes = append(nodes, RawNode{Index: i + 1, Node: node, Err: err})
	}
	return nodes, nil
}

func parseElement(element string) (*yaml.Node, error) {
	text, err := toJSON(element)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("empty entry")
	}
	return resolveAlias(doc.Content[0]), nil
}
