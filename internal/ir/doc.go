// Package ir holds the expression DAG types shared by every other package.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - The opcode enumeration is closed; Op values are stable numeric codes
//   - Nodes are stored in topological order, operands precede users
//   - Shape tags are written once by the optimizer and read-only afterwards
//   - Canonical JSON carries no floats; values are exact hex strings
package ir
