package metadata

import (
	"encoding/json"
	"strconv"

	"github.com/quillvm/cellar/layout"
)

// Document is the JSON report for one derived layout. The layout tree uses
// the contract metadata format: struct layouts list named fields, enum
// layouts map discriminants to variant layouts under a dispatch key, and
// every storage key renders as "0x%08x".
type Document struct {
	Type        string `json:"type"`
	Root        string `json:"root"`
	Packedness  string `json:"packedness"`
	Fingerprint string `json:"fingerprint"`
	Layout      Node   `json:"layout"`
}

// Node is one layout tree node. Exactly one branch is set.
type Node struct {
	Struct *StructLayout `json:"struct,omitempty"`
	Enum   *EnumLayout   `json:"enum,omitempty"`
	Cell   *CellLayout   `json:"cell,omitempty"`
	Inline *InlineLayout `json:"inline,omitempty"`
}

// StructLayout lists field layouts in declaration order.
type StructLayout struct {
	Fields []FieldLayout `json:"fields"`
}

// FieldLayout pairs a field name with its resolved layout.
type FieldLayout struct {
	Name   string `json:"name"`
	Layout Node   `json:"layout"`
}

// CellLayout is a field routed to its own storage cell.
type CellLayout struct {
	Key  string `json:"key"`
	Ty   string `json:"ty"`
	Lazy bool   `json:"lazy,omitempty"`
}

// InlineLayout is a field concatenated into the parent encoding. Offset is
// -1 when a preceding variable-length field makes it dynamic.
type InlineLayout struct {
	Offset int    `json:"offset"`
	Ty     string `json:"ty"`
}

// EnumLayout maps variant discriminants to their layouts. The dispatch key
// addresses the cell holding the discriminant, which for a root enum is the
// root cell itself.
type EnumLayout struct {
	DispatchKey string                  `json:"dispatchKey"`
	Variants    map[string]StructLayout `json:"variants"`
}

// Render builds the metadata document for a derived layout.
func Render(d *layout.Derived) *Document {
	return &Document{
		Type:        d.Type.Name,
		Root:        d.Root.String(),
		Packedness:  d.Packedness.String(),
		Fingerprint: d.Fingerprint(),
		Layout:      renderNode(d),
	}
}

// RenderJSON renders the document as indented JSON.
func RenderJSON(d *layout.Derived) ([]byte, error) {
	return json.MarshalIndent(Render(d), "", "  ")
}

func renderNode(d *layout.Derived) Node {
	switch d.Type.Kind {
	case layout.KindStruct:
		s := renderStruct(d, "", d.Type.Fields)
		return Node{Struct: &s}
	case layout.KindEnum:
		variants := make(map[string]StructLayout, len(d.Type.Variants))
		for vi := range d.Type.Variants {
			v := &d.Type.Variants[vi]
			variants[strconv.Itoa(int(v.Discriminant))] = renderStruct(d, v.Name, v.Fields)
		}
		return Node{Enum: &EnumLayout{
			DispatchKey: d.Root.String(),
			Variants:    variants,
		}}
	default:
		// A non-composite root is a single cell holding the whole value.
		return Node{Cell: &CellLayout{Key: d.Root.String(), Ty: d.Type.Name}}
	}
}

func renderStruct(d *layout.Derived, variant string, fields []layout.FieldDescriptor) StructLayout {
	hints := make(map[string]layout.Hint, len(d.Hints))
	for _, h := range d.Hints {
		if h.Variant == variant {
			hints[h.Field] = h
		}
	}

	out := StructLayout{Fields: make([]FieldLayout, 0, len(fields))}
	for i := range fields {
		f := &fields[i]
		h, ok := hints[f.Name]
		if !ok {
			continue
		}
		var node Node
		switch h.Kind {
		case layout.HintCell:
			node.Cell = &CellLayout{Key: h.Key.String(), Ty: f.Type.Name, Lazy: h.Lazy}
		default:
			node.Inline = &InlineLayout{Offset: h.Offset, Ty: f.Type.Name}
		}
		out.Fields = append(out.Fields, FieldLayout{Name: f.Name, Layout: node})
	}
	return out
}
