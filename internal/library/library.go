// Package library keeps the named tree descriptions a host can run and
// compiles them into prototype trees. Trees reference each other through the
// lookup action; the library resolves those references and rejects cycles.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"example.com/behavior-sim/internal/behavior"
	"example.com/behavior-sim/internal/behavior/actions"
	"example.com/behavior-sim/internal/db"
)

var (
	ErrNotFound = errors.New("tree not found")
	ErrCycle    = errors.New("tree references itself")
)

// Extensions lists the file suffixes LoadDir picks up.
var Extensions = []string{".json", ".yaml", ".yml"}

// Store is the persisted side of the library.
type Store interface {
	ListTrees(ctx context.Context) ([]db.Tree, error)
}

type Library struct {
	registry *behavior.Registry
	out      io.Writer

	mu    sync.RWMutex
	raw   map[string][]byte
	cache map[string]behavior.Node
}

// New returns an empty library. Print actions in compiled trees write to out.
func New(registry *behavior.Registry, out io.Writer) *Library {
	return &Library{
		registry: registry,
		out:      out,
		raw:      make(map[string][]byte),
		cache:    make(map[string]behavior.Node),
	}
}

func (l *Library) Registry() *behavior.Registry { return l.registry }

// Names returns the stored tree names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.raw))
	for name := range l.raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the stored description for name.
func (l *Library) Source(name string) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	raw, ok := l.raw[name]
	return raw, ok
}

// Add stores descriptions without compiling them, so trees may be added in
// any order. Call Check once the set is complete.
func (l *Library) Add(trees map[string][]byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, raw := range trees {
		l.raw[name] = raw
	}
	l.cache = make(map[string]behavior.Node)
}

// Put compiles raw against the current library and stores it under name.
// The previous description is kept if compilation fails.
func (l *Library) Put(name string, raw []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("tree name required")
	}
	l.mu.Lock()
	prev, had := l.raw[name]
	l.raw[name] = raw
	l.cache = make(map[string]behavior.Node)
	l.mu.Unlock()

	if _, err := l.Tree(name); err != nil {
		l.mu.Lock()
		if had {
			l.raw[name] = prev
		} else {
			delete(l.raw, name)
		}
		l.cache = make(map[string]behavior.Node)
		l.mu.Unlock()
		return err
	}
	return nil
}

func (l *Library) Remove(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.raw[name]; !ok {
		return false
	}
	delete(l.raw, name)
	l.cache = make(map[string]behavior.Node)
	return true
}

// Check compiles every stored tree and reports all failures.
func (l *Library) Check() error {
	var errs []error
	for _, name := range l.Names() {
		if _, err := l.Tree(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Tree returns the compiled prototype for name. Prototypes are cached until
// the library changes; runners deep-copy them, so one prototype and its
// actions are shared by every actor running the tree.
func (l *Library) Tree(name string) (behavior.Node, error) {
	l.mu.RLock()
	n, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return n, nil
	}
	n, err := l.compile(name, nil)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.cache[name] = n
	l.mu.Unlock()
	return n, nil
}

// Resolve implements actions.Resolver for trees compiled outside the library.
func (l *Library) Resolve(name string) (behavior.Node, error) {
	return l.Tree(name)
}

// Compile parses an unnamed description against the library, resolving any
// lookups it makes. Nothing is stored.
func (l *Library) Compile(raw []byte) (behavior.Node, error) {
	return l.builder(nil).Parse(raw)
}

// Builder returns a builder wired to this library.
func (l *Library) Builder() *behavior.Builder {
	return l.builder(nil)
}

func (l *Library) compile(name string, stack []string) (behavior.Node, error) {
	for _, s := range stack {
		if s == name {
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(stack, name), " -> "))
		}
	}
	raw, ok := l.Source(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	path := append(append([]string(nil), stack...), name)
	return l.builder(path).Parse(raw)
}

func (l *Library) builder(stack []string) *behavior.Builder {
	resolve := resolverFunc(func(sub string) (behavior.Node, error) {
		return l.compile(sub, stack)
	})
	return behavior.NewBuilder(l.registry, behavior.WithInjector(actions.Inject(l.out, resolve)))
}

type resolverFunc func(name string) (behavior.Node, error)

func (f resolverFunc) Resolve(name string) (behavior.Node, error) { return f(name) }

// LoadDir adds every tree description file in dir, named by its base name
// without extension.
func (l *Library) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	trees := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := TreeName(e.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return 0, err
		}
		if _, dup := trees[name]; dup {
			log.Printf("[library] %s: duplicate tree %q, keeping first", dir, name)
			continue
		}
		trees[name] = data
	}
	l.Add(trees)
	return len(trees), nil
}

// LoadStore adds every tree held by s.
func (l *Library) LoadStore(ctx context.Context, s Store) (int, error) {
	rows, err := s.ListTrees(ctx)
	if err != nil {
		return 0, fmt.Errorf("list trees: %w", err)
	}
	trees := make(map[string][]byte, len(rows))
	for _, t := range rows {
		trees[t.Name] = []byte(t.Description)
	}
	l.Add(trees)
	return len(trees), nil
}

// TreeName maps a file name to a tree name, reporting false for files that
// are not tree descriptions.
func TreeName(file string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(file))
	for _, want := range Extensions {
		if ext == want {
			return strings.TrimSuffix(file, filepath.Ext(file)), true
		}
	}
	return "", false
}
