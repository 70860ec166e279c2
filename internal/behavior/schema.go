package behavior

import "sort"

// Kind is the value type a field accepts.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "any"
	}
}

// Field describes one configurable field of an action.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema lists the fields an action accepts, in declaration order.
type Schema []Field

func (s Schema) lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Fields holds decoded field values. Values have already been coerced to the
// Go type matching their Kind: string, int, float64, bool or, for KindAny,
// the value encoding/json would produce (float64 numbers, string-keyed maps).
type Fields map[string]any

func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

func (f Fields) Int(name string) int {
	n, _ := f[name].(int)
	return n
}

func (f Fields) Float(name string) float64 {
	v, _ := f[name].(float64)
	return v
}

func (f Fields) Bool(name string) bool {
	b, _ := f[name].(bool)
	return b
}

func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
