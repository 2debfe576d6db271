package ir

import (
	"fmt"
	"slices"
)

// Op identifies the kind of a DAG node.
//
// The enumeration is closed. Each arithmetic family has a base opcode (the
// general state-dependent variant, also used by the builder before
// specialization) followed by its shape variants. Numeric codes are stable
// and are part of the canonical IR.
type Op int

// Add family.
const (
	OpAdd                Op = 0 // f(x) + g(x)
	OpConstPlusVar       Op = 1 // c + f(x)
	OpConstPlusConst     Op = 2 // c1 + c2
	OpConstPlusTime      Op = 3 // c + t
	OpConstPlusFunTime   Op = 4 // c + f(t)
	OpTimePlusVar        Op = 5 // t + f(x)
	OpTimePlusFunTime    Op = 6 // t + f(t)
	OpFunTimePlusVar     Op = 7 // f(t) + g(x)
	OpFunTimePlusFunTime Op = 8 // f(t) + g(t)
)

// Sub family.
const (
	OpSub                 Op = 10
	OpConstMinusConst     Op = 11
	OpConstMinusVar       Op = 12
	OpConstMinusTime      Op = 13
	OpConstMinusFunTime   Op = 14
	OpTimeMinusConst      Op = 15
	OpTimeMinusFunTime    Op = 16
	OpTimeMinusVar        Op = 17
	OpFunTimeMinusConst   Op = 18
	OpFunTimeMinusTime    Op = 19
	OpFunTimeMinusFunTime Op = 20
	OpFunTimeMinusVar     Op = 21
	OpVarMinusConst       Op = 22
	OpVarMinusTime        Op = 23
	OpVarMinusFunTime     Op = 24
)

// Unary minus family.
const (
	OpUnaryMinus        Op = 30
	OpUnaryMinusConst   Op = 31
	OpUnaryMinusTime    Op = 32
	OpUnaryMinusFunTime Op = 33
)

// Mul family.
const (
	OpMul                 Op = 40 // f(x) * g(x)
	OpMulConstByVar       Op = 41 // c * f(x)
	OpMulConstByConst     Op = 42 // c1 * c2
	OpMulConstByTime      Op = 43 // c * t
	OpMulConstByFunTime   Op = 44 // c * f(t)
	OpMulTimeByVar        Op = 45 // t * f(x)
	OpMulTimeByFunTime    Op = 46 // t * f(t)
	OpMulFunTimeByVar     Op = 47 // f(t) * g(x)
	OpMulFunTimeByFunTime Op = 48 // f(t) * g(t)
)

// Div family. Quotients whose denominator is a general expression all use
// OpDiv; time/funtime and time/var are covered by the funtime variants.
const (
	OpDiv                 Op = 50
	OpDivVarByConst       Op = 51
	OpDivVarByTime        Op = 52
	OpDivVarByFunTime     Op = 53
	OpDivTimeByConst      Op = 54
	OpDivFunTimeByConst   Op = 55
	OpDivFunTimeByTime    Op = 56
	OpDivFunTimeByFunTime Op = 57
	OpDivConstByConst     Op = 58
)

// Square and square root.
const (
	OpSqr         Op = 60
	OpSqrConst    Op = 61
	OpSqrTime     Op = 62
	OpSqrFunTime  Op = 63
	OpSqrt        Op = 64
	OpSqrtConst   Op = 65
	OpSqrtTime    Op = 66
	OpSqrtFunTime Op = 67
)

// Powers. The exponent is always the right operand, a const-shaped node.
const (
	OpPow                Op = 70 // general exponent, positive base required
	OpPowConst           Op = 71
	OpPowTime            Op = 72
	OpPowFunTime         Op = 73
	OpNaturalPow         Op = 74 // exponent in {5, 6, ...}
	OpNaturalPowConst    Op = 75
	OpNaturalPowTime     Op = 76
	OpNaturalPowFunTime  Op = 77
	OpNegIntPow          Op = 78 // exponent in {-1, -2, ...}
	OpNegIntPowConst     Op = 79
	OpNegIntPowTime      Op = 80
	OpNegIntPowFunTime   Op = 81
	OpHalfIntPow         Op = 82 // exponent N/2 with N odd
	OpHalfIntPowConst    Op = 83
	OpHalfIntPowTime     Op = 84
	OpHalfIntPowFunTime  Op = 85
	OpCube               Op = 86
	OpCubeConst          Op = 87
	OpCubeTime           Op = 88
	OpCubeFunTime        Op = 89
	OpQuartic            Op = 90
	OpQuarticConst       Op = 91
	OpQuarticTime        Op = 92
	OpQuarticFunTime     Op = 93
)

// Transcendental functions.
const (
	OpExp        Op = 100
	OpExpConst   Op = 101
	OpExpTime    Op = 102
	OpExpFunTime Op = 103
	OpLog        Op = 104
	OpLogConst   Op = 105
	OpLogTime    Op = 106
	OpLogFunTime Op = 107

	// OpSin computes sin into its own block and cos into the block of the
	// paired OpCos node referenced by Right.
	OpSin        Op = 110
	OpSinConst   Op = 111
	OpSinTime    Op = 112
	OpSinFunTime Op = 113

	// OpAtan uses Right = sqr(Left) as an auxiliary node.
	OpAtan        Op = 114
	OpAtanConst   Op = 115
	OpAtanTime    Op = 116
	OpAtanFunTime Op = 117

	OpOneMinusSqr        Op = 118
	OpOneMinusSqrConst   Op = 119
	OpOneMinusSqrTime    Op = 120
	OpOneMinusSqrFunTime Op = 121

	// OpAsin and OpAcos use Right = sqrt(1 - Left^2) as an auxiliary node.
	OpAsin        Op = 122
	OpAsinConst   Op = 123
	OpAsinTime    Op = 124
	OpAsinFunTime Op = 125
	OpAcos        Op = 126
	OpAcosConst   Op = 127
	OpAcosTime    Op = 128
	OpAcosFunTime Op = 129
)

// Leaves.
const (
	OpNull  Op = 130
	OpConst Op = 131
	OpTime  Op = 132
	OpParam Op = 133
	OpVar   Op = 134
	OpCos   Op = 135
)

// Family groups opcodes that share one set of recurrences.
type Family uint8

const (
	FamilyInvalid Family = iota
	FamilyLeaf
	FamilyAdd
	FamilySub
	FamilyUnaryMinus
	FamilyMul
	FamilyDiv
	FamilySqr
	FamilySqrt
	FamilyPow
	FamilyNaturalPow
	FamilyNegIntPow
	FamilyHalfIntPow
	FamilyCube
	FamilyQuartic
	FamilyExp
	FamilyLog
	FamilySin
	FamilyAtan
	FamilyOneMinusSqr
	FamilyAsin
	FamilyAcos
)

type opInfo struct {
	name   string
	family Family
}

var opTable = map[Op]opInfo{
	OpAdd:                {"add", FamilyAdd},
	OpConstPlusVar:       {"const_plus_var", FamilyAdd},
	OpConstPlusConst:     {"const_plus_const", FamilyAdd},
	OpConstPlusTime:      {"const_plus_time", FamilyAdd},
	OpConstPlusFunTime:   {"const_plus_funtime", FamilyAdd},
	OpTimePlusVar:        {"time_plus_var", FamilyAdd},
	OpTimePlusFunTime:    {"time_plus_funtime", FamilyAdd},
	OpFunTimePlusVar:     {"funtime_plus_var", FamilyAdd},
	OpFunTimePlusFunTime: {"funtime_plus_funtime", FamilyAdd},

	OpSub:                 {"sub", FamilySub},
	OpConstMinusConst:     {"const_minus_const", FamilySub},
	OpConstMinusVar:       {"const_minus_var", FamilySub},
	OpConstMinusTime:      {"const_minus_time", FamilySub},
	OpConstMinusFunTime:   {"const_minus_funtime", FamilySub},
	OpTimeMinusConst:      {"time_minus_const", FamilySub},
	OpTimeMinusFunTime:    {"time_minus_funtime", FamilySub},
	OpTimeMinusVar:        {"time_minus_var", FamilySub},
	OpFunTimeMinusConst:   {"funtime_minus_const", FamilySub},
	OpFunTimeMinusTime:    {"funtime_minus_time", FamilySub},
	OpFunTimeMinusFunTime: {"funtime_minus_funtime", FamilySub},
	OpFunTimeMinusVar:     {"funtime_minus_var", FamilySub},
	OpVarMinusConst:       {"var_minus_const", FamilySub},
	OpVarMinusTime:        {"var_minus_time", FamilySub},
	OpVarMinusFunTime:     {"var_minus_funtime", FamilySub},

	OpUnaryMinus:        {"unary_minus", FamilyUnaryMinus},
	OpUnaryMinusConst:   {"unary_minus_const", FamilyUnaryMinus},
	OpUnaryMinusTime:    {"unary_minus_time", FamilyUnaryMinus},
	OpUnaryMinusFunTime: {"unary_minus_funtime", FamilyUnaryMinus},

	OpMul:                 {"mul", FamilyMul},
	OpMulConstByVar:       {"mul_const_by_var", FamilyMul},
	OpMulConstByConst:     {"mul_const_by_const", FamilyMul},
	OpMulConstByTime:      {"mul_const_by_time", FamilyMul},
	OpMulConstByFunTime:   {"mul_const_by_funtime", FamilyMul},
	OpMulTimeByVar:        {"mul_time_by_var", FamilyMul},
	OpMulTimeByFunTime:    {"mul_time_by_funtime", FamilyMul},
	OpMulFunTimeByVar:     {"mul_funtime_by_var", FamilyMul},
	OpMulFunTimeByFunTime: {"mul_funtime_by_funtime", FamilyMul},

	OpDiv:                 {"div", FamilyDiv},
	OpDivVarByConst:       {"div_var_by_const", FamilyDiv},
	OpDivVarByTime:        {"div_var_by_time", FamilyDiv},
	OpDivVarByFunTime:     {"div_var_by_funtime", FamilyDiv},
	OpDivTimeByConst:      {"div_time_by_const", FamilyDiv},
	OpDivFunTimeByConst:   {"div_funtime_by_const", FamilyDiv},
	OpDivFunTimeByTime:    {"div_funtime_by_time", FamilyDiv},
	OpDivFunTimeByFunTime: {"div_funtime_by_funtime", FamilyDiv},
	OpDivConstByConst:     {"div_const_by_const", FamilyDiv},

	OpSqr:         {"sqr", FamilySqr},
	OpSqrConst:    {"sqr_const", FamilySqr},
	OpSqrTime:     {"sqr_time", FamilySqr},
	OpSqrFunTime:  {"sqr_funtime", FamilySqr},
	OpSqrt:        {"sqrt", FamilySqrt},
	OpSqrtConst:   {"sqrt_const", FamilySqrt},
	OpSqrtTime:    {"sqrt_time", FamilySqrt},
	OpSqrtFunTime: {"sqrt_funtime", FamilySqrt},

	OpPow:               {"pow", FamilyPow},
	OpPowConst:          {"pow_const", FamilyPow},
	OpPowTime:           {"pow_time", FamilyPow},
	OpPowFunTime:        {"pow_funtime", FamilyPow},
	OpNaturalPow:        {"natural_pow", FamilyNaturalPow},
	OpNaturalPowConst:   {"natural_pow_const", FamilyNaturalPow},
	OpNaturalPowTime:    {"natural_pow_time", FamilyNaturalPow},
	OpNaturalPowFunTime: {"natural_pow_funtime", FamilyNaturalPow},
	OpNegIntPow:         {"neg_int_pow", FamilyNegIntPow},
	OpNegIntPowConst:    {"neg_int_pow_const", FamilyNegIntPow},
	OpNegIntPowTime:     {"neg_int_pow_time", FamilyNegIntPow},
	OpNegIntPowFunTime:  {"neg_int_pow_funtime", FamilyNegIntPow},
	OpHalfIntPow:        {"half_int_pow", FamilyHalfIntPow},
	OpHalfIntPowConst:   {"half_int_pow_const", FamilyHalfIntPow},
	OpHalfIntPowTime:    {"half_int_pow_time", FamilyHalfIntPow},
	OpHalfIntPowFunTime: {"half_int_pow_funtime", FamilyHalfIntPow},
	OpCube:              {"cube", FamilyCube},
	OpCubeConst:         {"cube_const", FamilyCube},
	OpCubeTime:          {"cube_time", FamilyCube},
	OpCubeFunTime:       {"cube_funtime", FamilyCube},
	OpQuartic:           {"quartic", FamilyQuartic},
	OpQuarticConst:      {"quartic_const", FamilyQuartic},
	OpQuarticTime:       {"quartic_time", FamilyQuartic},
	OpQuarticFunTime:    {"quartic_funtime", FamilyQuartic},

	OpExp:        {"exp", FamilyExp},
	OpExpConst:   {"exp_const", FamilyExp},
	OpExpTime:    {"exp_time", FamilyExp},
	OpExpFunTime: {"exp_funtime", FamilyExp},
	OpLog:        {"log", FamilyLog},
	OpLogConst:   {"log_const", FamilyLog},
	OpLogTime:    {"log_time", FamilyLog},
	OpLogFunTime: {"log_funtime", FamilyLog},

	OpSin:        {"sin", FamilySin},
	OpSinConst:   {"sin_const", FamilySin},
	OpSinTime:    {"sin_time", FamilySin},
	OpSinFunTime: {"sin_funtime", FamilySin},

	OpAtan:        {"atan", FamilyAtan},
	OpAtanConst:   {"atan_const", FamilyAtan},
	OpAtanTime:    {"atan_time", FamilyAtan},
	OpAtanFunTime: {"atan_funtime", FamilyAtan},

	OpOneMinusSqr:        {"one_minus_sqr", FamilyOneMinusSqr},
	OpOneMinusSqrConst:   {"one_minus_sqr_const", FamilyOneMinusSqr},
	OpOneMinusSqrTime:    {"one_minus_sqr_time", FamilyOneMinusSqr},
	OpOneMinusSqrFunTime: {"one_minus_sqr_funtime", FamilyOneMinusSqr},

	OpAsin:        {"asin", FamilyAsin},
	OpAsinConst:   {"asin_const", FamilyAsin},
	OpAsinTime:    {"asin_time", FamilyAsin},
	OpAsinFunTime: {"asin_funtime", FamilyAsin},
	OpAcos:        {"acos", FamilyAcos},
	OpAcosConst:   {"acos_const", FamilyAcos},
	OpAcosTime:    {"acos_time", FamilyAcos},
	OpAcosFunTime: {"acos_funtime", FamilyAcos},

	OpNull:  {"null", FamilyLeaf},
	OpConst: {"const", FamilyLeaf},
	OpTime:  {"time", FamilyLeaf},
	OpParam: {"param", FamilyLeaf},
	OpVar:   {"var", FamilyLeaf},
	OpCos:   {"cos", FamilyLeaf},
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, len(opTable))
	for op, info := range opTable {
		m[info.name] = op
	}
	return m
}()

// String returns the snake_case name used in canonical IR.
func (o Op) String() string {
	if info, ok := opTable[o]; ok {
		return info.name
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Valid reports whether o is a member of the enumeration.
func (o Op) Valid() bool {
	_, ok := opTable[o]
	return ok
}

// Family returns the recurrence family of o, or FamilyInvalid.
func (o Op) Family() Family {
	return opTable[o].family
}

// IsLeaf reports whether o takes no operands.
func (o Op) IsLeaf() bool {
	return o.Family() == FamilyLeaf
}

// IsGeneric reports whether o is the unspecialized base opcode of its
// family. The builder only emits generic opcodes; Optimize replaces them.
func (o Op) IsGeneric() bool {
	switch o {
	case OpAdd, OpSub, OpUnaryMinus, OpMul, OpDiv, OpSqr, OpSqrt, OpPow,
		OpNaturalPow, OpNegIntPow, OpHalfIntPow, OpCube, OpQuartic, OpExp,
		OpLog, OpSin, OpAtan, OpOneMinusSqr, OpAsin, OpAcos:
		return true
	}
	return false
}

// IsBinary reports whether both operands carry data. Power families also
// use Right, but only as an exponent holder.
func (o Op) IsBinary() bool {
	switch o.Family() {
	case FamilyAdd, FamilySub, FamilyMul, FamilyDiv:
		return true
	}
	return false
}

// HasExponent reports whether Right refers to a constant exponent node.
func (o Op) HasExponent() bool {
	switch o.Family() {
	case FamilyPow, FamilyNaturalPow, FamilyNegIntPow, FamilyHalfIntPow:
		return true
	}
	return false
}

// ParseOp returns the opcode with the given canonical name.
func ParseOp(name string) (Op, error) {
	op, ok := opByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown opcode %q", name)
	}
	return op, nil
}

// Ops returns every opcode of the enumeration in ascending numeric order.
func Ops() []Op {
	ops := make([]Op, 0, len(opTable))
	for op := range opTable {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}
