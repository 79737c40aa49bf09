package domain

import "strings"

// Header is a single header line. Name keeps the case it had in the file.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered header list. Names may repeat and are compared
// case-insensitively.
type Headers []Header

// Get returns the value of the first header named name.
func (h Headers) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

func (h Headers) Lookup(name string) (string, bool) {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value of name, in file order.
func (h Headers) Values(name string) []string {
	var out []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Replace sets the value of every header named name in place and reports
// whether at least one was found. Position and name case are kept.
func (h Headers) Replace(name, value string) bool {
	found := false
	for i := range h {
		if strings.EqualFold(h[i].Name, name) {
			h[i].Value = value
			found = true
		}
	}
	return found
}

func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	return append(Headers(nil), h...)
}
