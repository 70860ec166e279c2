package actions

import (
	"fmt"
	"io"
	"os"

	"example.com/behavior-sim/internal/behavior"
)

// Print writes "[msg]" and succeeds.
type Print struct {
	behavior.BaseAction
	Msg string
	Out io.Writer
}

func (p *Print) Name() string { return "print" }

func (p *Print) Schema() behavior.Schema {
	return behavior.Schema{{Name: "msg", Kind: behavior.KindString}}
}

func (p *Print) Configure(f behavior.Fields) error {
	p.Msg = f.String("msg")
	return nil
}

func (p *Print) Fields() behavior.Fields {
	if p.Msg == "" {
		return nil
	}
	return behavior.Fields{"msg": p.Msg}
}

func (p *Print) Modify(*behavior.Actor, behavior.State) (behavior.State, error) {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := fmt.Fprintf(out, "[%s]", p.Msg); err != nil {
		return behavior.StateUndefined, err
	}
	return behavior.StateSuccess, nil
}
