package behavior

import "reflect"

// Equal reports whether a and b describe the same tree: same node kinds and
// names, same child order and same action field values. Ids and activation
// state are ignored.
func Equal(a, b Node) bool {
	if d, ok := a.(*DelegateNode); ok {
		a = d.delegate
	}
	if d, ok := b.(*DelegateNode); ok {
		b = d.delegate
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || a.Name() != b.Name() {
		return false
	}
	switch ta := a.(type) {
	case *ActionNode:
		if !sameFields(ta.action, b.(*ActionNode).action) {
			return false
		}
	case *DecoratorNode:
		tb := b.(*DecoratorNode)
		if (ta.action == nil) != (tb.action == nil) {
			return false
		}
		if ta.action != nil && !sameFields(ta.action, tb.action) {
			return false
		}
	}
	ca, cb := a.Children(), b.Children()
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !Equal(ca[i], cb[i]) {
			return false
		}
	}
	return true
}

func sameFields(a, b Action) bool {
	ca, okA := a.(Configurable)
	cb, okB := b.(Configurable)
	if okA != okB {
		return false
	}
	if !okA {
		return true
	}
	fa, fb := ca.Fields(), cb.Fields()
	if len(fa) == 0 && len(fb) == 0 {
		return true
	}
	return reflect.DeepEqual(fa, fb)
}
