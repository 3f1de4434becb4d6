// Package prover implements Etch's abstract-interpretation safety prover
// (spec §4.4): an interval domain with constant folding, nil-safety,
// bounds-checking, definite-initialization and a symbolic-execution
// fallback for bounded loops. No single teacher package performs abstract
// interpretation; this is built in the teacher's idiom (small,
// single-purpose files per concern) generalized from the closest prior art,
// funvibe-funxy/internal/analyzer/inference_range.go's range-based for-loop
// inference, into a full interval domain (see DESIGN.md).
package prover

import "math"

// Interval is a closed integer range used by the optional disjunctive set.
type Interval struct {
	Min, Max int64
}

// Info is the abstract domain record tracked per variable per program point
// (spec §4.4, "Abstract domain").
type Info struct {
	Known bool
	CVal  int64

	Min, Max int64 // saturates at math.MinInt64/MaxInt64

	// Disjunct, when non-nil, is a normalized (sorted, merged-on-overlap)
	// set of sub-ranges, more precise than [Min,Max] alone. union merges the
	// operands' sets, but no transformer populates one, so it stays nil and
	// [Min,Max] alone governs.
	Disjunct []Interval

	NonZero bool
	NonNil  bool
	IsBool  bool

	Initialized bool
	Used        bool

	IsArray        bool
	IsString       bool
	ArraySize      int64 // -1 denotes unknown
	ArraySizeKnown bool
}

// Unknown returns the least-precise Info: full int64 range, no flags set.
func Unknown() Info {
	return Info{Min: math.MinInt64, Max: math.MaxInt64, ArraySize: -1}
}

// KnownInt returns Info for a variable whose exact value is known.
func KnownInt(v int64) Info {
	return Info{Known: true, CVal: v, Min: v, Max: v, NonZero: v != 0, Initialized: true, ArraySize: -1}
}

// KnownBool returns Info for a variable whose exact boolean value is known.
func KnownBool(v bool) Info {
	n := int64(0)
	if v {
		n = 1
	}
	return Info{Known: true, CVal: n, Min: n, Max: n, IsBool: true, Initialized: true, ArraySize: -1}
}

func clampAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// meet intersects a and b: the narrowest information both branches imply
// (spec §4.4, "meet"). Used to refine an environment along one control-flow
// edge with a condition's implication.
func meet(a, b Info) Info {
	out := Info{}
	out.Known = a.Known && b.Known && a.CVal == b.CVal
	if out.Known {
		out.CVal = a.CVal
	}
	out.Min = maxI64(a.Min, b.Min)
	out.Max = minI64(a.Max, b.Max)
	if out.Min > out.Max {
		// Infeasible combination; collapse to an empty-looking but still
		// well-formed interval rather than propagating Min>Max downstream.
		out.Min, out.Max = a.Min, a.Min
	}
	out.NonZero = a.NonZero && b.NonZero
	out.NonNil = a.NonNil && b.NonNil
	out.IsBool = a.IsBool && b.IsBool
	out.Initialized = a.Initialized && b.Initialized
	out.Used = a.Used || b.Used
	out.IsArray = a.IsArray && b.IsArray
	out.IsString = a.IsString && b.IsString
	out.ArraySizeKnown = a.ArraySizeKnown && b.ArraySizeKnown && a.ArraySize == b.ArraySize
	if out.ArraySizeKnown {
		out.ArraySize = a.ArraySize
	} else {
		out.ArraySize = -1
	}
	if !out.NonZero || out.Min > 0 || out.Max < 0 {
		out.NonZero = out.NonZero || out.Min > 0 || out.Max < 0
	}
	return out
}

// union widens a and b: information that must hold on every incoming edge,
// but covering the widest value set (spec §4.4, "union"). Used at
// control-flow merge points.
func union(a, b Info) Info {
	out := Info{}
	out.Known = a.Known && b.Known && a.CVal == b.CVal
	if out.Known {
		out.CVal = a.CVal
	}
	out.Min = minI64(a.Min, b.Min)
	out.Max = maxI64(a.Max, b.Max)
	out.NonZero = a.NonZero && b.NonZero
	out.NonNil = a.NonNil && b.NonNil
	out.IsBool = a.IsBool && b.IsBool
	out.Initialized = a.Initialized && b.Initialized
	out.Used = a.Used || b.Used
	out.IsArray = a.IsArray && b.IsArray
	out.IsString = a.IsString && b.IsString
	out.ArraySizeKnown = a.ArraySizeKnown && b.ArraySizeKnown && a.ArraySize == b.ArraySize
	if out.ArraySizeKnown {
		out.ArraySize = a.ArraySize
	} else {
		out.ArraySize = -1
	}
	out.Disjunct = normalizeIntervals(append(append([]Interval{}, a.Disjunct...), b.Disjunct...))
	return out
}

// normalizeIntervals sorts and merges overlapping or adjacent intervals.
func normalizeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := append([]Interval{}, in...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].Min > sorted[j].Min; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Min <= clampAdd(last.Max, 1) {
			last.Max = maxI64(last.Max, iv.Max)
		} else {
			out = append(out, iv)
		}
	}
	return out
}
