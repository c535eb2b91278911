// Package labels translates between the Japanese labels shown to staff and
// the internal enum values stored in the database.
package labels

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnknownLabel is returned when an input matches neither a value nor a label.
var ErrUnknownLabel = errors.New("unknown label")

// Entry declares one enum value, its display label and extra accepted labels.
type Entry struct {
	Value   string
	Label   string
	Aliases []string
}

// Dictionary is a bidirectional value <-> label table.
type Dictionary struct {
	name    string
	values  []string
	toValue map[string]string
	toLabel map[string]string
}

// NewDictionary builds a dictionary. It panics on duplicate keys since tables
// are package-level literals.
func NewDictionary(name string, entries ...Entry) *Dictionary {
	d := &Dictionary{
		name:    name,
		toValue: make(map[string]string, len(entries)*3),
		toLabel: make(map[string]string, len(entries)),
	}
	add := func(key, value string) {
		key = normalize(key)
		if prev, ok := d.toValue[key]; ok && prev != value {
			panic(fmt.Sprintf("labels: %s: %q maps to both %q and %q", name, key, prev, value))
		}
		d.toValue[key] = value
	}
	for _, e := range entries {
		d.values = append(d.values, e.Value)
		d.toLabel[e.Value] = e.Label
		add(e.Value, e.Value)
		add(e.Label, e.Value)
		for _, alias := range e.Aliases {
			add(alias, e.Value)
		}
	}
	return d
}

// Decode resolves an enum value or any of its labels to the enum value.
func (d *Dictionary) Decode(input string) (string, error) {
	if v, ok := d.toValue[normalize(input)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s %q (allowed: %s)", ErrUnknownLabel, d.name, input, strings.Join(d.values, ", "))
}

// Label returns the display label of value, or value itself when none is registered.
func (d *Dictionary) Label(value string) string {
	if l, ok := d.toLabel[value]; ok {
		return l
	}
	return value
}

// Has reports whether value is a registered enum value.
func (d *Dictionary) Has(value string) bool {
	_, ok := d.toLabel[value]
	return ok
}

// Values lists the enum values in declaration order.
func (d *Dictionary) Values() []string {
	out := make([]string, len(d.values))
	copy(out, d.values)
	return out
}

// Name identifies the dictionary in error messages.
func (d *Dictionary) Name() string {
	return d.name
}

// normalize folds full-width forms and surrounding space so that "ｓｔｏｒａｇｅ "
// and "storage" compare equal.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}
