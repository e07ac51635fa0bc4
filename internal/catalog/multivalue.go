package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const nullTag = "!!null"

// Text accepts any scalar (string, number, bool) as a string. Null decodes to "".
type Text string

func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected text, got %s", node.Line, kindName(node.Kind))
	}
	if node.ShortTag() == nullTag {
		*t = ""
		return nil
	}
	*t = Text(strings.TrimSpace(node.Value))
	return nil
}

// Score is an optional number. Numeric strings are accepted, with "," allowed
// as the decimal separator.
type Score struct {
	Value float64
	Set   bool
}

func (s *Score) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected number, got %s", node.Line, kindName(node.Kind))
	}

	raw := strings.TrimSpace(node.Value)
	if node.ShortTag() == nullTag || raw == "" {
		*s = Score{}
		return nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("line %d: invalid number %q", node.Line, raw)
	}
	*s = Score{Value: v, Set: true}
	return nil
}

func (s Score) Ptr() *float64 {
	if !s.Set {
		return nil
	}
	v := s.Value
	return &v
}

type MultiValueKind int

const (
	MultiValueEmpty MultiValueKind = iota
	MultiValueSequence
	MultiValueDelimited
	MultiValueKeyed
)

// KeyedLabel is one entry of an object-shaped multi-valued field such as
// {"organic": true, "fair trade": false}.
type KeyedLabel struct {
	Label   string
	Enabled bool
}

// MultiValue is a multi-valued source field in whichever shape the source
// used: a list, a delimited string, or an object keyed by label. Values
// collapses every shape into the same ordered list.
type MultiValue struct {
	Kind  MultiValueKind
	Items []string
	Text  string
	Keys  []KeyedLabel
}

func (m *MultiValue) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	*m = MultiValue{}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == nullTag {
			return nil
		}
		m.Kind = MultiValueDelimited
		m.Text = node.Value
	case yaml.SequenceNode:
		m.Kind = MultiValueSequence
		for _, child := range node.Content {
			child = resolveAlias(child)
			if child.Kind == yaml.ScalarNode {
				if child.ShortTag() != nullTag {
					m.Items = append(m.Items, child.Value)
				}
				continue
			}
			var nested MultiValue
			if err := nested.UnmarshalYAML(child); err != nil {
				return err
			}
			m.Items = append(m.Items, nested.Values()...)
		}
	case yaml.MappingNode:
		m.Kind = MultiValueKeyed
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := resolveAlias(node.Content[i])
			if key.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: object keys must be text", key.Line)
			}
			m.Keys = append(m.Keys, KeyedLabel{
				Label:   key.Value,
				Enabled: truthy(resolveAlias(node.Content[i+1])),
			})
		}
	default:
		return fmt.Errorf("line %d: unsupported value %s", node.Line, kindName(node.Kind))
	}
	return nil
}

// Values returns the canonical sequence: trimmed, non-empty, with
// case-insensitive duplicates removed keeping the first spelling.
func (m MultiValue) Values() []string {
	var raw []string
	switch m.Kind {
	case MultiValueSequence:
		raw = m.Items
	case MultiValueDelimited:
		raw = splitDelimited(m.Text)
	case MultiValueKeyed:
		for _, k := range m.Keys {
			if k.Enabled {
				raw = append(raw, k.Label)
			}
		}
	}
	return canonical(raw)
}

func splitDelimited(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', ';', '|', '\n', '\r':
			return true
		}
		return false
	})
}

func canonical(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func truthy(node *yaml.Node) bool {
	switch node.Kind {
	case yaml.ScalarNode:
		v := strings.ToLower(strings.TrimSpace(node.Value))
		switch node.ShortTag() {
		case nullTag:
			return false
		case "!!bool":
			return v == "true"
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(v, 64)
			return err == nil && f != 0
		}
		return v != "" && v != "false" && v != "0" && v != "no"
	case yaml.SequenceNode, yaml.MappingNode:
		return len(node.Content) > 0
	}
	return false
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "object"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	}
	return "unknown"
}
