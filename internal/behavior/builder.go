package behavior

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const childKey = "child"

// Injector is run once on every action minted by a parse, after ids are
// assigned and before Setup.
type Injector func(Action) error

// Builder converts tree descriptions to node graphs and back.
//
// A description node is either a bare string naming a terminal or a
// configless action or decorator, or a single-key object:
//
//	{"sequence"|"selector"|"parallel"|"dynamic": [<node>, ...]}
//	{"<action>": {<field>: <value>, ...}}
//	{"<decorator>": {<field>: <value>, ..., "child": <node>}}
//
// JSON is the canonical form. Because the reader is built on YAML, YAML
// documents with the same shape are accepted too.
type Builder struct {
	registry  *Registry
	injectors []Injector
}

type BuilderOption func(*Builder)

// WithInjector adds a hook run on every minted action.
func WithInjector(fn Injector) BuilderOption {
	return func(b *Builder) {
		b.injectors = append(b.injectors, fn)
	}
}

func NewBuilder(registry *Registry, opts ...BuilderOption) *Builder {
	b := &Builder{registry: registry}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Registry() *Registry { return b.registry }

// Parse builds a tree from a description. Ids are assigned to actions
// depth-first, left to right, starting at 1. On error no tree is returned.
func (b *Builder) Parse(data []byte) (Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed("empty description")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, malformed("expected a single tree")
	}
	p := &parser{registry: b.registry}
	root, err := p.node(doc.Content[0])
	if err != nil {
		return nil, err
	}
	for _, a := range p.minted {
		for _, inject := range b.injectors {
			if err := inject(a); err != nil {
				return nil, fmt.Errorf("inject %s#%d: %w", a.Name(), a.ID(), err)
			}
		}
		if s, ok := a.(Setupper); ok {
			if err := s.Setup(); err != nil {
				return nil, fmt.Errorf("setup %s#%d: %w", a.Name(), a.ID(), err)
			}
		}
	}
	return root, nil
}

type parser struct {
	registry *Registry
	nextID   int
	minted   []Action
}

func (p *parser) mint(f Factory) Action {
	a := f()
	p.nextID++
	a.SetID(p.nextID)
	p.minted = append(p.minted, a)
	return a
}

func (p *parser) node(n *yaml.Node) (Node, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag != "!!str" {
			return nil, malformed("line %d: expected a type name, got %q", n.Line, n.Value)
		}
		return p.bare(n)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, malformed("line %d: node object must have exactly one key, got %d", n.Line, len(n.Content)/2)
		}
		key, payload := n.Content[0], n.Content[1]
		if key.Kind != yaml.ScalarNode {
			return nil, malformed("line %d: node type must be a string", key.Line)
		}
		return p.typed(key.Value, payload)
	default:
		return nil, malformed("line %d: expected a string or an object", n.Line)
	}
}

func (p *parser) bare(n *yaml.Node) (Node, error) {
	name := n.Value
	switch name {
	case NameSequence, NameSelector, NameParallel, NameDynamic:
		return nil, malformed("line %d: composite %q needs a child list", n.Line, name)
	}
	if f, ok := p.registry.action(name); ok {
		a := p.mint(f)
		if err := configure(a, nil); err != nil {
			return nil, err
		}
		return NewActionNode(a), nil
	}
	if f, ok := p.registry.decorator(name); ok {
		a := p.mint(f)
		if err := configure(a, nil); err != nil {
			return nil, err
		}
		return NewDecoratorNode(a, nil), nil
	}
	return nil, fmt.Errorf("%w: %q (line %d)", ErrUnknownNodeType, name, n.Line)
}

func (p *parser) typed(name string, payload *yaml.Node) (Node, error) {
	if payload.Kind == yaml.AliasNode {
		payload = payload.Alias
	}
	switch name {
	case NameSequence, NameSelector, NameParallel, NameDynamic:
		children, err := p.children(name, payload)
		if err != nil {
			return nil, err
		}
		return newComposite(name, children), nil
	}
	if f, ok := p.registry.action(name); ok {
		pairs, err := mappingPairs(name, payload)
		if err != nil {
			return nil, err
		}
		a := p.mint(f)
		if err := configure(a, pairs); err != nil {
			return nil, err
		}
		return NewActionNode(a), nil
	}
	if f, ok := p.registry.decorator(name); ok {
		pairs, err := mappingPairs(name, payload)
		if err != nil {
			return nil, err
		}
		a := p.mint(f)
		var childNode *yaml.Node
		var fields []*yaml.Node
		for i := 0; i < len(pairs); i += 2 {
			if pairs[i].Value == childKey {
				if childNode != nil {
					return nil, malformed("line %d: decorator %q has more than one child", pairs[i].Line, name)
				}
				childNode = pairs[i+1]
				continue
			}
			fields = append(fields, pairs[i], pairs[i+1])
		}
		if err := configure(a, fields); err != nil {
			return nil, err
		}
		var child Node
		if childNode != nil {
			child, err = p.node(childNode)
			if err != nil {
				return nil, err
			}
		}
		return NewDecoratorNode(a, child), nil
	}
	return nil, fmt.Errorf("%w: %q (line %d)", ErrUnknownNodeType, name, payload.Line)
}

func (p *parser) children(name string, payload *yaml.Node) ([]Node, error) {
	if payload.Kind != yaml.SequenceNode {
		return nil, malformed("line %d: composite %q payload must be an array", payload.Line, name)
	}
	children := make([]Node, 0, len(payload.Content))
	for _, c := range payload.Content {
		child, err := p.node(c)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func newComposite(name string, children []Node) Node {
	switch name {
	case NameSequence:
		return NewSequenceNode(children...)
	case NameSelector:
		return NewSelectorNode(children...)
	case NameParallel:
		return NewParallelNode(children...)
	default:
		return NewDynamicSelectorNode(children...)
	}
}

// mappingPairs returns the key/value nodes of an object payload. A null
// payload is treated as an empty object.
func mappingPairs(name string, payload *yaml.Node) ([]*yaml.Node, error) {
	if payload.Kind == yaml.ScalarNode && payload.Tag == "!!null" {
		return nil, nil
	}
	if payload.Kind != yaml.MappingNode {
		return nil, malformed("line %d: %q payload must be an object", payload.Line, name)
	}
	seen := make(map[string]bool, len(payload.Content)/2)
	for i := 0; i < len(payload.Content); i += 2 {
		k := payload.Content[i]
		if k.Kind != yaml.ScalarNode {
			return nil, malformed("line %d: %q field names must be strings", k.Line, name)
		}
		if seen[k.Value] {
			return nil, malformed("line %d: %q repeats field %q", k.Line, name, k.Value)
		}
		seen[k.Value] = true
	}
	return payload.Content, nil
}

// configure decodes key/value pairs against the action's schema.
func configure(a Action, pairs []*yaml.Node) error {
	c, ok := a.(Configurable)
	if !ok {
		if len(pairs) > 0 {
			return malformed("line %d: %q takes no fields", pairs[0].Line, a.Name())
		}
		return nil
	}
	schema := c.Schema()
	fields := make(Fields, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, v := pairs[i], pairs[i+1]
		field, ok := schema.lookup(k.Value)
		if !ok {
			return malformed("line %d: %q has no field %q", k.Line, a.Name(), k.Value)
		}
		val, err := decodeValue(field, v)
		if err != nil {
			return fmt.Errorf("%w: line %d: %s.%s: %v", ErrMalformedDescription, v.Line, a.Name(), field.Name, err)
		}
		fields[field.Name] = val
	}
	for _, f := range schema {
		if f.Required && !fields.Has(f.Name) {
			return malformed("%q requires field %q", a.Name(), f.Name)
		}
	}
	if err := c.Configure(fields); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedDescription, a.Name(), err)
	}
	return nil
}

func decodeValue(f Field, n *yaml.Node) (any, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch f.Kind {
	case KindString:
		if n.Kind != yaml.ScalarNode || n.Tag != "!!str" {
			return nil, errors.New("expected a string")
		}
		return n.Value, nil
	case KindInt:
		var v int
		if n.Kind != yaml.ScalarNode || n.Tag != "!!int" || n.Decode(&v) != nil {
			return nil, errors.New("expected an integer")
		}
		return v, nil
	case KindFloat:
		var v float64
		if n.Kind != yaml.ScalarNode || (n.Tag != "!!int" && n.Tag != "!!float") || n.Decode(&v) != nil {
			return nil, errors.New("expected a number")
		}
		return v, nil
	case KindBool:
		var v bool
		if n.Kind != yaml.ScalarNode || n.Tag != "!!bool" || n.Decode(&v) != nil {
			return nil, errors.New("expected a boolean")
		}
		return v, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return plainValue(v), nil
	}
}

// plainValue rewrites a decoded free-form value into the shapes
// encoding/json produces: every number becomes float64 and every map gets
// string keys. Without this, 2.0 would read back as int after a round trip.
func plainValue(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

// Serialize writes the JSON description of the tree rooted at n.
func (b *Builder) Serialize(n Node) ([]byte, error) {
	v, err := Value(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// SerializeIndent is Serialize with indentation, for files meant to be read.
func (b *Builder) SerializeIndent(n Node) ([]byte, error) {
	v, err := Value(n)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

// Value converts a tree to its description as plain strings, maps and
// slices. Parsing the JSON encoding of the result yields an equal tree.
func Value(n Node) (any, error) {
	switch t := n.(type) {
	case nil:
		return nil, malformed("nil node")
	case *DelegateNode:
		return Value(t.delegate)
	case *ActionNode:
		return actionValue(t.action, nil), nil
	case *DecoratorNode:
		if t.action == nil {
			return nil, malformed("decorator without an action cannot be described")
		}
		var child any
		if t.child != nil {
			v, err := Value(t.child)
			if err != nil {
				return nil, err
			}
			child = v
		}
		return actionValue(t.action, child), nil
	case *SequenceNode, *SelectorNode, *ParallelNode, *DynamicSelectorNode:
		children := make([]any, 0, len(n.Children()))
		for _, c := range n.Children() {
			v, err := Value(c)
			if err != nil {
				return nil, err
			}
			children = append(children, v)
		}
		return map[string]any{n.Name(): children}, nil
	default:
		return nil, malformed("cannot describe node %T", n)
	}
}

func actionValue(a Action, child any) any {
	var fields Fields
	if c, ok := a.(Configurable); ok {
		fields = c.Fields()
	}
	if len(fields) == 0 && child == nil {
		return a.Name()
	}
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	if child != nil {
		payload[childKey] = child
	}
	return map[string]any{a.Name(): payload}
}
