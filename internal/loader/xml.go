package loader

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/datalens/internal/table"
)

type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
}

// readXML treats every child element of the document root as a row. The
// row's attributes and its leaf child elements become columns, in order of
// first appearance; elements with nested children are ignored.
func readXML(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	root, err := parseXMLTree(f)
	if err != nil {
		return nil, err
	}
	if len(root.children) == 0 {
		return nil, errors.New("root element has no row elements")
	}
	var names []string
	index := map[string]int{}
	records := make([]map[string]string, 0, len(root.children))
	add := func(rec map[string]string, key, val string) {
		if _, ok := index[key]; !ok {
			index[key] = len(names)
			names = append(names, key)
		}
		rec[key] = val
	}
	for _, row := range root.children {
		rec := map[string]string{}
		for _, a := range row.attrs {
			add(rec, a.Name.Local, a.Value)
		}
		for _, c := range row.children {
			if len(c.children) > 0 {
				continue
			}
			add(rec, c.name, strings.TrimSpace(c.text.String()))
		}
		if len(row.attrs) == 0 && len(row.children) == 0 {
			if txt := strings.TrimSpace(row.text.String()); txt != "" {
				add(rec, row.name, txt)
			}
		}
		records = append(records, rec)
	}
	cols := make([]table.Column, len(names))
	cells := make([]string, len(records))
	for j, name := range names {
		for i, rec := range records {
			cells[i] = rec[name]
		}
		cols[j] = table.InferText(name, cells)
	}
	return table.New(cols...)
}

func parseXMLTree(r io.Reader) (*xmlNode, error) {
	dec := xml.NewDecoder(r)
	var stack []*xmlNode
	var root *xmlNode
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("decode xml: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("decode xml: document has no root element")
	}
	return root, nil
}
