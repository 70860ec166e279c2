// Package actions holds the stock actions and decorators available to tree
// descriptions.
package actions

import (
	"errors"
	"io"

	"example.com/behavior-sim/internal/behavior"
)

// Resolver looks up a named tree for the lookup action.
type Resolver interface {
	Resolve(name string) (behavior.Node, error)
}

// Register adds every stock action and decorator to reg.
func Register(reg *behavior.Registry) {
	reg.RegisterAction("print", func() behavior.Action { return &Print{} })
	reg.RegisterAction("set", func() behavior.Action { return &Set{} })
	reg.RegisterAction("check", func() behavior.Action { return &Check{} })
	reg.RegisterAction("lookup", func() behavior.Action { return &Lookup{} })
	reg.RegisterDecorator("counter", func() behavior.Action { return &Counter{} })
	reg.RegisterDecorator("repeat", func() behavior.Action { return &Repeat{} })
	reg.RegisterDecorator("delay", func() behavior.Action { return &Delay{} })
	reg.RegisterDecorator("timeout", func() behavior.Action { return &Timeout{} })
	reg.RegisterDecorator("invert", func() behavior.Action { return &Invert{} })
}

// Inject returns a builder injector wiring print output and lookup
// resolution. Either argument may be nil.
func Inject(out io.Writer, resolver Resolver) behavior.Injector {
	return func(a behavior.Action) error {
		switch t := a.(type) {
		case *Print:
			if out != nil {
				t.Out = out
			}
		case *Lookup:
			if resolver != nil {
				t.Resolver = resolver
			}
		}
		return nil
	}
}

var errSlot = errors.New("slot holds unexpected value")
