package plot

import (
	"fmt"
	"strings"
)

// Kind selects the chart type.
type Kind int

const (
	KindBox Kind = iota
	KindHistogram
	KindLine
	KindScatter
)

var kindNames = []struct {
	label string
	slug  string
}{
	KindBox:       {"Box Plot", "box"},
	KindHistogram: {"Histogram", "histogram"},
	KindLine:      {"Line Plot", "line"},
	KindScatter:   {"Scatter Plot", "scatter"},
}

// Kinds returns every kind in menu order.
func Kinds() []Kind {
	return []Kind{KindBox, KindHistogram, KindLine, KindScatter}
}

// Labels returns the menu labels of Kinds().
func Labels() []string {
	out := make([]string, 0, len(kindNames))
	for _, k := range Kinds() {
		out = append(out, k.String())
	}
	return out
}

// String returns the menu label, e.g. "Box Plot".
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k].label
}

// Slug returns the short command-line name, e.g. "box".
func (k Kind) Slug() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return ""
	}
	return kindNames[k].slug
}

// NeedsY reports whether the kind plots two columns.
func (k Kind) NeedsY() bool { return k == KindScatter }

// ParseKind accepts a label or slug, case-insensitively.
func ParseKind(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if v == k.Slug() || v == strings.ToLower(k.String()) {
			return k, nil
		}
	}
	if v == "hist" {
		return KindHistogram, nil
	}
	return KindBox, fmt.Errorf("unknown plot kind %q (want box, histogram, line or scatter)", s)
}
