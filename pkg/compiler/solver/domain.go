package solver

import (
	"math"
)

// maxExclusionScan bounds the number of integer candidates examined when a
// domain carries != exclusions. Policy rule sets produce a handful of
// exclusions at most; the bound only guards against pathological input.
const maxExclusionScan = 1 << 20

// boolDomain tracks which truth values remain feasible.
type boolDomain struct {
	canTrue  bool
	canFalse bool
}

func newBoolDomain() *boolDomain {
	return &boolDomain{canTrue: true, canFalse: true}
}

func (d *boolDomain) assertEq(v bool) {
	if v {
		d.canFalse = false
	} else {
		d.canTrue = false
	}
}

func (d *boolDomain) assertNe(v bool) {
	d.assertEq(!v)
}

// witness returns a feasible truth value, preferring true for stable
// output ordering.
func (d *boolDomain) witness() (bool, bool) {
	switch {
	case d.canTrue:
		return true, true
	case d.canFalse:
		return false, true
	}
	return false, false
}

// enumDomain tracks the remaining feasible symbolic values. The ordered
// slice preserves the schema's declaration order for deterministic
// witnesses.
type enumDomain struct {
	ordered []string
	allowed map[string]bool
}

func newEnumDomain(values []string) *enumDomain {
	d := &enumDomain{
		ordered: values,
		allowed: make(map[string]bool, len(values)),
	}
	for _, v := range values {
		d.allowed[v] = true
	}
	return d
}

func (d *enumDomain) assertEq(v string) {
	if !d.allowed[v] {
		// Value already infeasible (or outside the declared set):
		// the whole domain collapses.
		d.allowed = map[string]bool{}
		return
	}
	d.allowed = map[string]bool{v: true}
}

func (d *enumDomain) assertNe(v string) {
	delete(d.allowed, v)
}

func (d *enumDomain) witness() (string, bool) {
	for _, v := range d.ordered {
		if d.allowed[v] {
			return v, true
		}
	}
	return "", false
}

// numDomain tracks a numeric interval with optional open bounds and
// point exclusions. Integer domains additionally require an integral
// witness.
type numDomain struct {
	lo, hi             float64
	loStrict, hiStrict bool
	excluded           map[float64]bool
	integer            bool
}

func newNumDomain(integer bool) *numDomain {
	return &numDomain{
		lo:       math.Inf(-1),
		hi:       math.Inf(1),
		excluded: make(map[float64]bool),
		integer:  integer,
	}
}

func (d *numDomain) assertEq(v float64) {
	d.tightenLo(v, false)
	d.tightenHi(v, false)
}

func (d *numDomain) assertNe(v float64) {
	d.excluded[v] = true
}

func (d *numDomain) assertLt(v float64) { d.tightenHi(v, true) }
func (d *numDomain) assertLe(v float64) { d.tightenHi(v, false) }
func (d *numDomain) assertGt(v float64) { d.tightenLo(v, true) }
func (d *numDomain) assertGe(v float64) { d.tightenLo(v, false) }

func (d *numDomain) tightenLo(v float64, strict bool) {
	if v > d.lo || (v == d.lo && strict && !d.loStrict) {
		d.lo = v
		d.loStrict = strict
	}
}

func (d *numDomain) tightenHi(v float64, strict bool) {
	if v < d.hi || (v == d.hi && strict && !d.hiStrict) {
		d.hi = v
		d.hiStrict = strict
	}
}

// witness returns a feasible value, or false when the interval is empty.
// Integer domains scan candidates ascending from the lower bound so
// witnesses are reproducible across runs.
func (d *numDomain) witness() (float64, bool) {
	if d.lo > d.hi {
		return 0, false
	}
	if d.lo == d.hi {
		if d.loStrict || d.hiStrict || d.excluded[d.lo] {
			return 0, false
		}
		return d.lo, true
	}
	if d.integer {
		return d.integerWitness()
	}
	return d.realWitness()
}

func (d *numDomain) integerWitness() (float64, bool) {
	lo, hi := d.lo, d.hi

	var start float64
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		start = 0
	case math.IsInf(lo, -1):
		// Unbounded below: walk downward from the upper bound.
		h := math.Floor(hi)
		if d.hiStrict && h == hi {
			h--
		}
		for v, n := h, 0; n < maxExclusionScan; v, n = v-1, n+1 {
			if !d.excluded[v] {
				return v, true
			}
		}
		return 0, false
	default:
		start = math.Ceil(lo)
		if d.loStrict && start == lo {
			start++
		}
	}

	end := hi
	if !math.IsInf(hi, 1) {
		end = math.Floor(hi)
		if d.hiStrict && end == hi {
			end--
		}
	}

	for v, n := start, 0; n < maxExclusionScan; v, n = v+1, n+1 {
		if !math.IsInf(end, 1) && v > end {
			return 0, false
		}
		if !d.excluded[v] {
			return v, true
		}
	}
	return 0, false
}

func (d *numDomain) realWitness() (float64, bool) {
	lo, hi := d.lo, d.hi

	var base, step float64
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		base, step = 0, 0.5
	case math.IsInf(lo, -1):
		base = hi
		if d.hiStrict {
			base = hi - 1
		}
		step = -0.5
	case math.IsInf(hi, 1):
		base = lo
		if d.loStrict {
			base = lo + 1
		}
		step = 0.5
	default:
		base = (lo + hi) / 2
		step = (hi - lo) / 1024
	}

	v := base
	for i := 0; i < 1024; i++ {
		inLo := v > lo || (v == lo && !d.loStrict)
		inHi := v < hi || (v == hi && !d.hiStrict)
		if inLo && inHi && !d.excluded[v] {
			return v, true
		}
		v = base + float64(i+1)*step
	}
	return 0, false
}
