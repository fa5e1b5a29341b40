package canon

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextKey is the reserved key holding an element's own text when the element
// also has attributes or children.
const TextKey = "text"

// XMLWrapperTag wraps encoded mappings that have more than one top-level key,
// since an XML document has exactly one root element.
const XMLWrapperTag = "atree"

// ErrInvalidXMLName is returned when a label cannot be written as an XML tag.
var ErrInvalidXMLName = errors.New("label is not a valid XML element name")

// Element is a parsed XML element.
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string // character data before the first child element
	Children []*Element
}

// Attr is one XML attribute.
type Attr struct {
	Name  string
	Value string
}

// ParseXML reads a document and returns its root element. Namespaces are
// reduced to local names; comments, processing instructions and text that
// follows a child element are ignored.
func ParseXML(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Tag: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, errors.New("text outside root element")
				}
				continue
			}
			cur := stack[len(stack)-1]
			if len(cur.Children) == 0 {
				cur.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

// NormalizeElement converts an element tree into the mapping a JSON or YAML
// decoder would produce for the same document: {tag: value}.
func NormalizeElement(el *Element) *Mapping {
	m := NewMapping()
	m.Set(el.Tag, normalizeValue(el))
	return m
}

func normalizeValue(el *Element) any {
	text := strings.TrimSpace(el.Text)
	if len(el.Children) == 0 && len(el.Attrs) == 0 {
		return text
	}

	m := NewMapping()

	// Group children by tag, keeping first-appearance order.
	grouped := NewMapping()
	for _, child := range el.Children {
		v := normalizeValue(child)
		if prev, ok := grouped.Get(child.Tag); ok {
			grouped.Set(child.Tag, append(prev.([]any), v))
		} else {
			grouped.Set(child.Tag, []any{v})
		}
	}
	for _, e := range grouped.Entries() {
		items := e.Value.([]any)
		if len(items) == 1 {
			m.Set(e.Key, items[0])
		} else {
			m.Set(e.Key, items)
		}
	}

	for _, a := range el.Attrs {
		m.Set(a.Name, a.Value)
	}
	if text != "" {
		m.Set(TextKey, text)
	}
	return m
}

func encodeXML(w io.Writer, m *Mapping) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	entries := m.Entries()
	if len(entries) == 1 {
		if _, isSeq := entries[0].Value.([]any); !isSeq {
			if err := writeXMLValue(enc, entries[0].Key, entries[0].Value); err != nil {
				return err
			}
			return finishXML(w, enc)
		}
	}

	start := xml.StartElement{Name: xml.Name{Local: XMLWrapperTag}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeXMLValue(enc, e.Key, e.Value); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return err
	}
	return finishXML(w, enc)
}

func finishXML(w io.Writer, enc *xml.Encoder) error {
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func writeXMLValue(enc *xml.Encoder, tag string, v any) error {
	if !validXMLName(tag) {
		return fmt.Errorf("%w: %q", ErrInvalidXMLName, tag)
	}

	if items, ok := v.([]any); ok {
		for _, item := range items {
			if err := writeXMLValue(enc, tag, item); err != nil {
				return err
			}
		}
		return nil
	}

	start := xml.StartElement{Name: xml.Name{Local: tag}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	switch t := v.(type) {
	case *Mapping:
		for _, e := range t.Entries() {
			if err := writeXMLValue(enc, e.Key, e.Value); err != nil {
				return err
			}
		}
	default:
		if s := FormatScalar(v); s != "" {
			if err := enc.EncodeToken(xml.CharData(s)); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

// FormatScalar renders a scalar value as text.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func validXMLName(name string) bool {
	if name == "" || strings.HasPrefix(strings.ToLower(name), "xml") {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r > 0x7f:
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}
