// Package llm - schema.go reads the JSON Schema subset used by flow contracts so it can be
// handed to providers as a response schema and described inside prompts.
package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SchemaNode is the subset of JSON Schema that providers understand as a response schema.
type SchemaNode struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*SchemaNode `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *SchemaNode            `json:"items,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Const       *string                `json:"const,omitempty"`
	MinItems    *int64                 `json:"minItems,omitempty"`
	MaxItems    *int64                 `json:"maxItems,omitempty"`
	MinLength   *int64                 `json:"minLength,omitempty"`

	// order keeps property declaration order from the source document.
	order []string
}

// ParseSchema decodes a JSON Schema document into a SchemaNode tree.
func ParseSchema(raw json.RawMessage) (*SchemaNode, error) {
	var node SchemaNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("failed to parse response schema: %w", err)
	}
	if err := node.fillOrder(raw); err != nil {
		return nil, err
	}
	return &node, nil
}

// PropertyNames returns property names in declaration order.
func (n *SchemaNode) PropertyNames() []string {
	if len(n.order) == len(n.Properties) {
		return n.order
	}
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnumValues folds const into a single-value enum, which is how providers express it.
func (n *SchemaNode) EnumValues() []string {
	if n.Const != nil {
		return []string{*n.Const}
	}
	return n.Enum
}

func (n *SchemaNode) fillOrder(raw json.RawMessage) error {
	var shape struct {
		Properties json.RawMessage `json:"properties"`
		Items      json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return fmt.Errorf("failed to parse response schema: %w", err)
	}
	if len(shape.Properties) > 0 {
		keys, values, err := orderedObject(shape.Properties)
		if err != nil {
			return err
		}
		n.order = keys
		for i, key := range keys {
			if child := n.Properties[key]; child != nil {
				if err := child.fillOrder(values[i]); err != nil {
					return err
				}
			}
		}
	}
	if len(shape.Items) > 0 && n.Items != nil {
		return n.Items.fillOrder(shape.Items)
	}
	return nil
}

// orderedObject walks a JSON object and returns its keys in document order.
func orderedObject(raw json.RawMessage) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("failed to read schema properties: %w", err)
	}
	var keys []string
	var values []json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read schema properties: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected schema token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("failed to read schema property %s: %w", key, err)
		}
		keys = append(keys, key)
		values = append(values, value)
	}
	return keys, values, nil
}

// DescribeSchema renders the expected JSON structure as prompt text. Providers that
// cannot enforce array bounds or constants still get them spelled out.
func DescribeSchema(node *SchemaNode) string {
	var sb strings.Builder
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	describeNode(&sb, node, 0)
	sb.WriteString("\nReturn ONLY the JSON object, no markdown, no explanation, no code blocks.\n")
	return sb.String()
}

func describeNode(sb *strings.Builder, node *SchemaNode, depth int) {
	indent := strings.Repeat("  ", depth)
	switch node.Type {
	case "object":
		sb.WriteString("{\n")
		required := make(map[string]bool, len(node.Required))
		for _, name := range node.Required {
			required[name] = true
		}
		names := node.PropertyNames()
		for i, name := range names {
			child := node.Properties[name]
			fmt.Fprintf(sb, "%s  %q: ", indent, name)
			describeNode(sb, child, depth+1)
			if i < len(names)-1 {
				sb.WriteString(",")
			}
			var notes []string
			if required[name] {
				notes = append(notes, "required")
			}
			notes = append(notes, constraintNotes(child)...)
			if child.Description != "" {
				notes = append(notes, child.Description)
			}
			if len(notes) > 0 {
				fmt.Fprintf(sb, " // %s", strings.Join(notes, "; "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString(indent + "}")
	case "array":
		sb.WriteString("[")
		if node.Items != nil {
			describeNode(sb, node.Items, depth)
		}
		sb.WriteString("]")
	default:
		if values := node.EnumValues(); len(values) > 0 {
			quoted := make([]string, len(values))
			for i, v := range values {
				quoted[i] = fmt.Sprintf("%q", v)
			}
			sb.WriteString(strings.Join(quoted, " | "))
			return
		}
		sb.WriteString(node.Type)
	}
}

func constraintNotes(node *SchemaNode) []string {
	var notes []string
	switch {
	case node.MinItems != nil && node.MaxItems != nil:
		notes = append(notes, fmt.Sprintf("%d to %d items", *node.MinItems, *node.MaxItems))
	case node.MinItems != nil:
		notes = append(notes, fmt.Sprintf("at least %d items", *node.MinItems))
	case node.MaxItems != nil:
		notes = append(notes, fmt.Sprintf("at most %d items", *node.MaxItems))
	}
	if node.MinLength != nil && *node.MinLength > 0 {
		notes = append(notes, "non-empty")
	}
	return notes
}
