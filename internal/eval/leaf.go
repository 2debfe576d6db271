package eval

// constLeaf writes a literal or parameter value.
type constLeaf struct {
	ops Operands
}

func (e *constLeaf) value(k int) error {
	if k == 0 {
		e.ops.Result[0] = *e.ops.Value
	}
	return nil
}

func (e *constLeaf) degree(int, int) error { return nil }

// timeLeaf writes the series t0 + s of the time variable.
type timeLeaf struct {
	ops Operands
}

func (e *timeLeaf) value(k int) error {
	switch k {
	case 0:
		e.ops.Result[0] = *e.ops.Value
	case 1:
		e.ops.Result[1] = 1
	default:
		e.ops.Result[k] = 0
	}
	return nil
}

func (e *timeLeaf) degree(int, int) error { return nil }
