package expand

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Document is the serializable form of a traversal result. Serialization is
// deterministic: the same Result always yields the same bytes, so responses
// can be diffed and cached by content.
type Document struct {
	Nodes     []DocumentNode `json:"nodes"`
	Edges     []DocumentEdge `json:"edges"`
	Truncated bool           `json:"truncated"`
	TimedOut  bool           `json:"timedOut"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// DocumentNode is one node of the output graph. Attribute fields and flag
// entries are emitted in sorted key order; a flag key appears only when the
// node actually carries that flag, so absence stays distinguishable from an
// empty value.
type DocumentNode struct {
	ID         string
	Label      string
	Layer      int
	Attributes map[string]string
	Flags      map[string]string
}

// DocumentEdge is one edge of the output graph, oriented as read from the
// link relation.
type DocumentEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// BuildDocument converts a traversal result into its serializable form.
// Nodes are ordered by layer, ties broken by discovery order; edges keep
// insertion order. Dangling edges cannot occur: the engine only records an
// edge after both endpoints are in the node set.
func BuildDocument(result *Result) *Document {
	doc := &Document{
		Nodes:     make([]DocumentNode, 0, len(result.Nodes)),
		Edges:     make([]DocumentEdge, 0, len(result.Edges)),
		Truncated: result.Truncated,
		TimedOut:  result.TimedOut,
		Warnings:  result.Warnings,
	}

	nodes := make([]*Node, len(result.Nodes))
	copy(nodes, result.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Layer < nodes[j].Layer
	})
	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, DocumentNode{
			ID:         n.Key.String(),
			Label:      n.Label,
			Layer:      n.Layer,
			Attributes: n.Attributes,
			Flags:      n.Flags,
		})
	}

	for _, e := range result.Edges {
		doc.Edges = append(doc.Edges, DocumentEdge{
			From:     e.From.String(),
			To:       e.To.String(),
			Relation: e.Label,
		})
	}
	return doc
}

// MarshalJSON writes the node as a flat object with a fixed key order:
// id, label, layer, then attribute fields sorted by name, then flag entries
// sorted by source name.
func (n DocumentNode) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(key string, value interface{}) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := writeField("id", n.ID); err != nil {
		return nil, err
	}
	if err := writeField("label", n.Label); err != nil {
		return nil, err
	}
	if err := writeField("layer", n.Layer); err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(n.Attributes) {
		if err := writeField(key, n.Attributes[key]); err != nil {
			return nil, err
		}
	}
	for _, key := range sortedKeys(n.Flags) {
		if err := writeField(key, n.Flags[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
