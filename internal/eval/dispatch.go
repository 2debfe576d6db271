package eval

import (
	"fmt"
	"math"

	"github.com/roach88/jetdag/internal/ir"
)

type builder func(Operands) (stepper, error)

type entry struct {
	shape ir.Shape
	build builder
}

func plain(mk func(Operands) stepper) builder {
	return func(ops Operands) (stepper, error) { return mk(ops), nil }
}

func lin(a, b float64, leftVar, rightVar bool) builder {
	return plain(func(o Operands) stepper { return newLinear(o, a, b, leftVar, rightVar) })
}

var (
	buildMul          = plain(func(o Operands) stepper { return &mul{ops: o} })
	buildMulByConst   = plain(func(o Operands) stepper { return &mulByConst{ops: o} })
	buildMulConstTime = plain(func(o Operands) stepper { return &mulConstByTime{ops: o} })
	buildMulByTime    = plain(func(o Operands) stepper { return &mulByTime{ops: o} })
	buildMulByFunTime = plain(func(o Operands) stepper { return &mulByFunTime{ops: o} })

	buildDiv          = plain(func(o Operands) stepper { return &div{ops: o} })
	buildDivByConst   = plain(func(o Operands) stepper { return &divByConst{ops: o} })
	buildDivByTime    = plain(func(o Operands) stepper { return &divByTime{ops: o} })
	buildDivByFunTime = plain(func(o Operands) stepper { return &divByFunTime{ops: o} })

	buildSqr             = plain(func(o Operands) stepper { return &sqr{ops: o, scale: 1} })
	buildSqrTime         = plain(func(o Operands) stepper { return &sqrTime{ops: o, scale: 1} })
	buildOneMinusSqr     = plain(func(o Operands) stepper { return &sqr{ops: o, offset: 1, scale: -1} })
	buildOneMinusSqrTime = plain(func(o Operands) stepper { return &sqrTime{ops: o, offset: 1, scale: -1} })

	buildSqrt    = plain(func(o Operands) stepper { return newSqrt(o) })
	buildPow     = plain(func(o Operands) stepper { return newPow(o) })
	buildCube    = plain(func(o Operands) stepper { return newIntPow(o, 3) })
	buildQuartic = plain(func(o Operands) stepper { return newIntPow(o, 4) })

	buildCubeTime    = plain(func(o Operands) stepper { return &powTime{ops: o, n: 3} })
	buildQuarticTime = plain(func(o Operands) stepper { return &powTime{ops: o, n: 4} })

	buildExp     = plain(func(o Operands) stepper { return &exponential{ops: o} })
	buildExpTime = plain(func(o Operands) stepper { return &expTime{ops: o} })
	buildLog     = plain(func(o Operands) stepper { return &logarithm{ops: o} })
	buildSin     = plain(func(o Operands) stepper { return &sincos{ops: o} })
	buildAtan    = plain(func(o Operands) stepper { return newAtan(o) })
	buildAsin    = plain(func(o Operands) stepper { return newAsin(o) })
	buildAcos    = plain(func(o Operands) stepper { return newAcos(o) })

	buildConstLeaf = plain(func(o Operands) stepper { return &constLeaf{ops: o} })
	buildTimeLeaf  = plain(func(o Operands) stepper { return &timeLeaf{ops: o} })
)

func buildNaturalPow(ops Operands) (stepper, error) {
	n, err := intExponent(ops)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%s: exponent %d is not a natural power above 1", ops.Op, n)
	}
	return newIntPow(ops, n), nil
}

func buildNaturalPowTime(ops Operands) (stepper, error) {
	n, err := intExponent(ops)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%s: exponent %d is not a natural power above 1", ops.Op, n)
	}
	return &powTime{ops: ops, n: n}, nil
}

func buildNegIntPow(ops Operands) (stepper, error) {
	n, err := intExponent(ops)
	if err != nil {
		return nil, err
	}
	if n >= 0 {
		return nil, fmt.Errorf("%s: exponent %d is not negative", ops.Op, n)
	}
	return newNegIntPow(ops, n), nil
}

func buildHalfIntPow(ops Operands) (stepper, error) {
	if ops.Value == nil {
		return nil, fmt.Errorf("%s: missing exponent", ops.Op)
	}
	m := 2 * *ops.Value
	if m != math.Trunc(m) || int(m)%2 == 0 {
		return nil, fmt.Errorf("%s: exponent %v is not a half-integer", ops.Op, *ops.Value)
	}
	return newHalfIntPow(ops, int(m)), nil
}

func intExponent(ops Operands) (int, error) {
	if ops.Value == nil {
		return 0, fmt.Errorf("%s: missing exponent", ops.Op)
	}
	v := *ops.Value
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: exponent %v is not an integer", ops.Op, v)
	}
	return int(v), nil
}

var (
	addVV = lin(1, 1, true, true)
	addCV = lin(1, 1, false, true)
	addCC = lin(1, 1, false, false)

	subVV = lin(1, -1, true, true)
	subCV = lin(1, -1, false, true)
	subVC = lin(1, -1, true, false)
	subCC = lin(1, -1, false, false)

	negV = lin(-1, 0, true, false)
	negC = lin(-1, 0, false, false)
)

var table = map[ir.Op]entry{
	ir.OpConst: {ir.ShapeConst, buildConstLeaf},
	ir.OpParam: {ir.ShapeConst, buildConstLeaf},
	ir.OpTime:  {ir.ShapeTime, buildTimeLeaf},

	ir.OpAdd:                {ir.ShapeVar, addVV},
	ir.OpConstPlusVar:       {ir.ShapeVar, addCV},
	ir.OpConstPlusConst:     {ir.ShapeConst, addCC},
	ir.OpConstPlusTime:      {ir.ShapeFunTime, addCC},
	ir.OpConstPlusFunTime:   {ir.ShapeFunTime, addCC},
	ir.OpTimePlusVar:        {ir.ShapeVar, addCV},
	ir.OpTimePlusFunTime:    {ir.ShapeFunTime, addCC},
	ir.OpFunTimePlusVar:     {ir.ShapeVar, addCV},
	ir.OpFunTimePlusFunTime: {ir.ShapeFunTime, addCC},

	ir.OpSub:                 {ir.ShapeVar, subVV},
	ir.OpConstMinusConst:     {ir.ShapeConst, subCC},
	ir.OpConstMinusVar:       {ir.ShapeVar, subCV},
	ir.OpConstMinusTime:      {ir.ShapeFunTime, subCC},
	ir.OpConstMinusFunTime:   {ir.ShapeFunTime, subCC},
	ir.OpTimeMinusConst:      {ir.ShapeFunTime, subCC},
	ir.OpTimeMinusFunTime:    {ir.ShapeFunTime, subCC},
	ir.OpTimeMinusVar:        {ir.ShapeVar, subCV},
	ir.OpFunTimeMinusConst:   {ir.ShapeFunTime, subCC},
	ir.OpFunTimeMinusTime:    {ir.ShapeFunTime, subCC},
	ir.OpFunTimeMinusFunTime: {ir.ShapeFunTime, subCC},
	ir.OpFunTimeMinusVar:     {ir.ShapeVar, subCV},
	ir.OpVarMinusConst:       {ir.ShapeVar, subVC},
	ir.OpVarMinusTime:        {ir.ShapeVar, subVC},
	ir.OpVarMinusFunTime:     {ir.ShapeVar, subVC},

	ir.OpUnaryMinus:        {ir.ShapeVar, negV},
	ir.OpUnaryMinusConst:   {ir.ShapeConst, negC},
	ir.OpUnaryMinusTime:    {ir.ShapeFunTime, negC},
	ir.OpUnaryMinusFunTime: {ir.ShapeFunTime, negC},

	ir.OpMul:                 {ir.ShapeVar, buildMul},
	ir.OpMulConstByVar:       {ir.ShapeVar, buildMulByConst},
	ir.OpMulConstByConst:     {ir.ShapeConst, buildMul},
	ir.OpMulConstByTime:      {ir.ShapeFunTime, buildMulConstTime},
	ir.OpMulConstByFunTime:   {ir.ShapeFunTime, buildMulByConst},
	ir.OpMulTimeByVar:        {ir.ShapeVar, buildMulByTime},
	ir.OpMulTimeByFunTime:    {ir.ShapeFunTime, buildMulByTime},
	ir.OpMulFunTimeByVar:     {ir.ShapeVar, buildMulByFunTime},
	ir.OpMulFunTimeByFunTime: {ir.ShapeFunTime, buildMul},

	ir.OpDiv:                 {ir.ShapeVar, buildDiv},
	ir.OpDivVarByConst:       {ir.ShapeVar, buildDivByConst},
	ir.OpDivVarByTime:        {ir.ShapeVar, buildDivByTime},
	ir.OpDivVarByFunTime:     {ir.ShapeVar, buildDivByFunTime},
	ir.OpDivTimeByConst:      {ir.ShapeFunTime, buildDivByConst},
	ir.OpDivFunTimeByConst:   {ir.ShapeFunTime, buildDivByConst},
	ir.OpDivFunTimeByTime:    {ir.ShapeFunTime, buildDivByTime},
	ir.OpDivFunTimeByFunTime: {ir.ShapeFunTime, buildDiv},
	ir.OpDivConstByConst:     {ir.ShapeConst, buildDiv},

	ir.OpSqr:         {ir.ShapeVar, buildSqr},
	ir.OpSqrConst:    {ir.ShapeConst, buildSqr},
	ir.OpSqrTime:     {ir.ShapeFunTime, buildSqrTime},
	ir.OpSqrFunTime:  {ir.ShapeFunTime, buildSqr},
	ir.OpSqrt:        {ir.ShapeVar, buildSqrt},
	ir.OpSqrtConst:   {ir.ShapeConst, buildSqrt},
	ir.OpSqrtTime:    {ir.ShapeFunTime, buildSqrt},
	ir.OpSqrtFunTime: {ir.ShapeFunTime, buildSqrt},

	ir.OpPow:               {ir.ShapeVar, buildPow},
	ir.OpPowConst:          {ir.ShapeConst, buildPow},
	ir.OpPowTime:           {ir.ShapeFunTime, buildPow},
	ir.OpPowFunTime:        {ir.ShapeFunTime, buildPow},
	ir.OpNaturalPow:        {ir.ShapeVar, buildNaturalPow},
	ir.OpNaturalPowConst:   {ir.ShapeConst, buildNaturalPow},
	ir.OpNaturalPowTime:    {ir.ShapeFunTime, buildNaturalPowTime},
	ir.OpNaturalPowFunTime: {ir.ShapeFunTime, buildNaturalPow},
	ir.OpNegIntPow:         {ir.ShapeVar, buildNegIntPow},
	ir.OpNegIntPowConst:    {ir.ShapeConst, buildNegIntPow},
	ir.OpNegIntPowTime:     {ir.ShapeFunTime, buildNegIntPow},
	ir.OpNegIntPowFunTime:  {ir.ShapeFunTime, buildNegIntPow},
	ir.OpHalfIntPow:        {ir.ShapeVar, buildHalfIntPow},
	ir.OpHalfIntPowConst:   {ir.ShapeConst, buildHalfIntPow},
	ir.OpHalfIntPowTime:    {ir.ShapeFunTime, buildHalfIntPow},
	ir.OpHalfIntPowFunTime: {ir.ShapeFunTime, buildHalfIntPow},
	ir.OpCube:              {ir.ShapeVar, buildCube},
	ir.OpCubeConst:         {ir.ShapeConst, buildCube},
	ir.OpCubeTime:          {ir.ShapeFunTime, buildCubeTime},
	ir.OpCubeFunTime:       {ir.ShapeFunTime, buildCube},
	ir.OpQuartic:           {ir.ShapeVar, buildQuartic},
	ir.OpQuarticConst:      {ir.ShapeConst, buildQuartic},
	ir.OpQuarticTime:       {ir.ShapeFunTime, buildQuarticTime},
	ir.OpQuarticFunTime:    {ir.ShapeFunTime, buildQuartic},

	ir.OpExp:        {ir.ShapeVar, buildExp},
	ir.OpExpConst:   {ir.ShapeConst, buildExp},
	ir.OpExpTime:    {ir.ShapeFunTime, buildExpTime},
	ir.OpExpFunTime: {ir.ShapeFunTime, buildExp},
	ir.OpLog:        {ir.ShapeVar, buildLog},
	ir.OpLogConst:   {ir.ShapeConst, buildLog},
	ir.OpLogTime:    {ir.ShapeFunTime, buildLog},
	ir.OpLogFunTime: {ir.ShapeFunTime, buildLog},

	ir.OpSin:        {ir.ShapeVar, buildSin},
	ir.OpSinConst:   {ir.ShapeConst, buildSin},
	ir.OpSinTime:    {ir.ShapeFunTime, buildSin},
	ir.OpSinFunTime: {ir.ShapeFunTime, buildSin},

	ir.OpAtan:        {ir.ShapeVar, buildAtan},
	ir.OpAtanConst:   {ir.ShapeConst, buildAtan},
	ir.OpAtanTime:    {ir.ShapeFunTime, buildAtan},
	ir.OpAtanFunTime: {ir.ShapeFunTime, buildAtan},

	ir.OpOneMinusSqr:        {ir.ShapeVar, buildOneMinusSqr},
	ir.OpOneMinusSqrConst:   {ir.ShapeConst, buildOneMinusSqr},
	ir.OpOneMinusSqrTime:    {ir.ShapeFunTime, buildOneMinusSqrTime},
	ir.OpOneMinusSqrFunTime: {ir.ShapeFunTime, buildOneMinusSqr},

	ir.OpAsin:        {ir.ShapeVar, buildAsin},
	ir.OpAsinConst:   {ir.ShapeConst, buildAsin},
	ir.OpAsinTime:    {ir.ShapeFunTime, buildAsin},
	ir.OpAsinFunTime: {ir.ShapeFunTime, buildAsin},
	ir.OpAcos:        {ir.ShapeVar, buildAcos},
	ir.OpAcosConst:   {ir.ShapeConst, buildAcos},
	ir.OpAcosTime:    {ir.ShapeFunTime, buildAcos},
	ir.OpAcosFunTime: {ir.ShapeFunTime, buildAcos},
}

// New returns the evaluator of ops.Op bound to the given blocks. An opcode
// outside the table is a *LogicError.
func New(ops Operands) (Evaluator, error) {
	switch ops.Op {
	case ir.OpNull, ir.OpVar, ir.OpCos:
		return noop{}, nil
	}
	en, ok := table[ops.Op]
	if !ok {
		return nil, &LogicError{Op: ops.Op}
	}
	if err := checkOperands(ops); err != nil {
		return nil, err
	}
	s, err := en.build(ops)
	if err != nil {
		return nil, err
	}
	return byShape(en.shape, s), nil
}

// Shape returns the shape an evaluator of op is specialized for.
func Shape(op ir.Op) (ir.Shape, bool) {
	switch op {
	case ir.OpNull, ir.OpCos:
		return ir.ShapeUnknown, true
	case ir.OpVar:
		return ir.ShapeVar, true
	}
	en, ok := table[op]
	return en.shape, ok
}

func checkOperands(ops Operands) error {
	if ops.Indexer == nil || ops.Result == nil {
		return fmt.Errorf("%s: missing indexer or result block", ops.Op)
	}
	if ops.Op.IsLeaf() {
		if ops.Value == nil {
			return fmt.Errorf("%s: missing leaf value", ops.Op)
		}
		return nil
	}
	if ops.Left == nil {
		return fmt.Errorf("%s: missing left operand", ops.Op)
	}
	needRight := ops.Op.IsBinary() || ops.Op.HasExponent()
	switch ops.Op.Family() {
	case ir.FamilySin, ir.FamilyAtan, ir.FamilyAsin, ir.FamilyAcos:
		needRight = true
	}
	if needRight && ops.Right == nil {
		return fmt.Errorf("%s: missing right operand", ops.Op)
	}
	return nil
}
