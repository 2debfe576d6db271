package ir

import (
	"encoding/json"
	"fmt"
)

// Shape is the static dependency class of a node's value.
//
// It is computed once by the classification pass and never re-derived
// during evaluation.
type Shape uint8

const (
	// ShapeUnknown marks a node that has not been classified yet.
	ShapeUnknown Shape = iota
	// ShapeConst does not depend on time or on any space variable.
	ShapeConst
	// ShapeTime is the time variable itself.
	ShapeTime
	// ShapeFunTime depends on time only.
	ShapeFunTime
	// ShapeVar depends on at least one space variable.
	ShapeVar
)

var shapeNames = [...]string{"unknown", "const", "time", "funtime", "var"}

// String returns the lower-case shape name.
func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape is the inverse of Shape.String.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return ShapeUnknown, fmt.Errorf("unknown shape %q", name)
}

// MarshalJSON encodes the shape by name.
func (s Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a shape name.
func (s *Shape) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := ParseShape(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// NoOperand fills Left/Right of nodes that do not use them.
const NoOperand = -1

// Node is one vertex of an expression DAG.
//
// The result of node i lives in block i of the coefficient arena. Left and
// Right always refer to nodes with a smaller index.
type Node struct {
	Op    Op      `json:"op"`
	Left  int     `json:"left"`
	Right int     `json:"right"`
	Shape Shape   `json:"shape"`
	Value float64 `json:"value,omitempty"`
	Name  string  `json:"name,omitempty"`
}

// IsConst reports whether the node value is independent of time and space.
func (n Node) IsConst() bool { return n.Shape == ShapeConst }

// IsTimeOnly reports whether the node value is independent of the space
// variables. Constants are time-only as well.
func (n Node) IsTimeOnly() bool { return n.Shape != ShapeVar }

// Graph is a topologically ordered expression DAG.
type Graph struct {
	Name string `json:"name"`

	// Nodes in evaluation order.
	Nodes []Node `json:"nodes"`

	// Vars lists the space-variable node ids in declaration order. The i-th
	// entry is the i-th coordinate of the jet.
	Vars []int `json:"vars"`

	// Params maps parameter names to their node ids.
	Params map[string]int `json:"params,omitempty"`

	// Time is the node id of the time variable, or NoOperand.
	Time int `json:"time"`

	// Outputs maps output position to node id.
	Outputs []int `json:"outputs"`

	// Finalized is set by the optimizer once every node carries a shape and
	// a specialized opcode.
	Finalized bool `json:"finalized"`
}

// Dim returns the number of space variables.
func (g *Graph) Dim() int { return len(g.Vars) }

// VarNames returns the space-variable names in coordinate order.
func (g *Graph) VarNames() []string {
	names := make([]string, len(g.Vars))
	for i, id := range g.Vars {
		names[i] = g.Nodes[id].Name
	}
	return names
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	c := *g
	c.Nodes = append([]Node(nil), g.Nodes...)
	c.Vars = append([]int(nil), g.Vars...)
	c.Outputs = append([]int(nil), g.Outputs...)
	if g.Params != nil {
		c.Params = make(map[string]int, len(g.Params))
		for k, v := range g.Params {
			c.Params[k] = v
		}
	}
	return &c
}

// CheckOrder verifies that every operand precedes its user and that every
// opcode belongs to the enumeration.
func (g *Graph) CheckOrder() error {
	for i, n := range g.Nodes {
		if !n.Op.Valid() {
			return fmt.Errorf("node %d: invalid opcode %d", i, int(n.Op))
		}
		if n.Op.IsLeaf() && n.Op != OpCos {
			continue
		}
		if n.Left < 0 || n.Left >= i {
			return fmt.Errorf("node %d (%s): left operand %d does not precede it", i, n.Op, n.Left)
		}
		if n.Op == OpCos {
			continue
		}
		if n.Right != NoOperand && (n.Right < 0 || n.Right >= len(g.Nodes)) {
			return fmt.Errorf("node %d (%s): right operand %d out of range", i, n.Op, n.Right)
		}
		// Sin names its paired cos node, which follows it.
		if n.Op.Family() != FamilySin && n.Right >= i {
			return fmt.Errorf("node %d (%s): right operand %d does not precede it", i, n.Op, n.Right)
		}
	}
	for pos, id := range g.Outputs {
		if id < 0 || id >= len(g.Nodes) {
			return fmt.Errorf("output %d: node %d out of range", pos, id)
		}
	}
	return nil
}
