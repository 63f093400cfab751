package expr

import (
	"math"
)

// Func identifies a built-in function. Ids are fixed by the order below.
type Func int16

const (
	FnAbs Func = iota
	FnAcos
	FnAsin
	FnAtan
	FnAtan2
	FnCeil
	FnCh
	FnClamp
	FnCos
	FnDeg
	FnDetail
	FnDistance
	FnExp
	FnFit
	FnFit01
	FnFit10
	FnFit11
	FnFloor
	FnFrac
	FnIf
	FnInt
	FnLength
	FnLog
	FnLog10
	FnMax
	FnMin
	FnPow
	FnRad
	FnRint
	FnRound
	FnSign
	FnSin
	FnSqrt
	FnTan

	NumFuncs
)

type funcInfo struct {
	name  string
	arity int
}

var funcTable = [NumFuncs]funcInfo{
	FnAbs:      {"abs", 1},
	FnAcos:     {"acos", 1},
	FnAsin:     {"asin", 1},
	FnAtan:     {"atan", 1},
	FnAtan2:    {"atan2", 2},
	FnCeil:     {"ceil", 1},
	FnCh:       {"ch", 1},
	FnClamp:    {"clamp", 3},
	FnCos:      {"cos", 1},
	FnDeg:      {"deg", 1},
	FnDetail:   {"detail", 3},
	FnDistance: {"distance", 6},
	FnExp:      {"exp", 1},
	FnFit:      {"fit", 5},
	FnFit01:    {"fit01", 3},
	FnFit10:    {"fit10", 3},
	FnFit11:    {"fit11", 3},
	FnFloor:    {"floor", 1},
	FnFrac:     {"frac", 1},
	FnIf:       {"if", 3},
	FnInt:      {"int", 1},
	FnLength:   {"length", 3},
	FnLog:      {"log", 1},
	FnLog10:    {"log10", 1},
	FnMax:      {"max", 2},
	FnMin:      {"min", 2},
	FnPow:      {"pow", 2},
	FnRad:      {"rad", 1},
	FnRint:     {"rint", 1},
	FnRound:    {"round", 1},
	FnSign:     {"sign", 1},
	FnSin:      {"sin", 1},
	FnSqrt:     {"sqrt", 1},
	FnTan:      {"tan", 1},
}

func (f Func) String() string {
	if f < 0 || f >= NumFuncs {
		return "?"
	}
	return funcTable[f].name
}

// Arity is the number of operands f pops, or -1 for unknown ids.
func (f Func) Arity() int {
	if f < 0 || f >= NumFuncs {
		return -1
	}
	return funcTable[f].arity
}

// LookupFunc finds a function by name.
func LookupFunc(name string) (Func, bool) {
	for i, fi := range funcTable {
		if fi.name == name {
			return Func(i), true
		}
	}
	return 0, false
}

const (
	toRad = math.Pi / 180
	toDeg = 180 / math.Pi
)

// numeric evaluates the functions that only take numbers. args are in
// call order.
func numeric(f Func, args []float64) float64 {
	switch f {
	case FnAbs:
		return math.Abs(args[0])
	case FnAcos:
		return math.Acos(clamp(args[0], -1, 1)) * toDeg
	case FnAsin:
		return math.Asin(clamp(args[0], -1, 1)) * toDeg
	case FnAtan:
		return math.Atan(args[0]) * toDeg
	case FnAtan2:
		return math.Atan2(args[0], args[1]) * toDeg
	case FnCeil:
		return math.Ceil(args[0])
	case FnClamp:
		return clamp(args[0], args[1], args[2])
	case FnCos:
		return math.Cos(args[0] * toRad)
	case FnDeg:
		return args[0] * toDeg
	case FnDistance:
		dx, dy, dz := args[3]-args[0], args[4]-args[1], args[5]-args[2]
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	case FnExp:
		return math.Exp(args[0])
	case FnFit:
		return fit(args[0], args[1], args[2], args[3], args[4])
	case FnFit01:
		return fit(args[0], 0, 1, args[1], args[2])
	case FnFit10:
		return fit(args[0], 1, 0, args[1], args[2])
	case FnFit11:
		return fit(args[0], -1, 1, args[1], args[2])
	case FnFloor:
		return math.Floor(args[0])
	case FnFrac:
		return args[0] - math.Floor(args[0])
	case FnIf:
		if args[0] != 0 {
			return args[1]
		}
		return args[2]
	case FnInt:
		return math.Trunc(args[0])
	case FnLength:
		return math.Sqrt(args[0]*args[0] + args[1]*args[1] + args[2]*args[2])
	case FnLog:
		if args[0] <= 0 {
			return 0
		}
		return math.Log(args[0])
	case FnLog10:
		if args[0] <= 0 {
			return 0
		}
		return math.Log10(args[0])
	case FnMax:
		return math.Max(args[0], args[1])
	case FnMin:
		return math.Min(args[0], args[1])
	case FnPow:
		return math.Pow(args[0], args[1])
	case FnRad:
		return args[0] * toRad
	case FnRint:
		return math.RoundToEven(args[0])
	case FnRound:
		return math.Round(args[0])
	case FnSign:
		switch {
		case args[0] > 0:
			return 1
		case args[0] < 0:
			return -1
		}
		return 0
	case FnSin:
		return math.Sin(args[0] * toRad)
	case FnSqrt:
		if args[0] < 0 {
			return 0
		}
		return math.Sqrt(args[0])
	case FnTan:
		return math.Tan(args[0] * toRad)
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// fit maps v from [omin, omax] onto [nmin, nmax], clamping to the source
// range first.
func fit(v, omin, omax, nmin, nmax float64) float64 {
	if omin == omax {
		return nmin
	}
	v = clamp(v, omin, omax)
	return nmin + (nmax-nmin)*(v-omin)/(omax-omin)
}
