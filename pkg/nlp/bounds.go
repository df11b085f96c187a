package nlp

import "math"

type boundKind uint8

const (
	boundFree boundKind = iota
	boundLower
	boundUpper
	boundBoth
	boundFixed
)

// edgeMargin keeps internal variables off the exact sine extrema, where the
// mapping's derivative vanishes and the inner solver could not move them.
const edgeMargin = 1e-8

// transform maps between external variables x (which respect the box bounds)
// and unconstrained internal variables z.
//
//	two-sided:  x = l + (u-l)(sin z + 1)/2
//	lower only: x = l - 1 + sqrt(z² + 1)
//	upper only: x = u + 1 - sqrt(z² + 1)
type transform struct {
	kind  []boundKind
	lower []float64
	upper []float64
}

func newTransform(p Problem) *transform {
	t := &transform{
		kind:  make([]boundKind, p.N),
		lower: make([]float64, p.N),
		upper: make([]float64, p.N),
	}
	for i := 0; i < p.N; i++ {
		lo, hi := p.bound(i)
		t.lower[i], t.upper[i] = lo, hi
		loFinite, hiFinite := !math.IsInf(lo, -1), !math.IsInf(hi, 1)
		switch {
		case loFinite && hiFinite && lo == hi:
			t.kind[i] = boundFixed
		case loFinite && hiFinite:
			t.kind[i] = boundBoth
		case loFinite:
			t.kind[i] = boundLower
		case hiFinite:
			t.kind[i] = boundUpper
		default:
			t.kind[i] = boundFree
		}
	}
	return t
}

// project clamps x into the box in place.
func (t *transform) project(x []float64) {
	for i, v := range x {
		x[i] = math.Min(math.Max(v, t.lower[i]), t.upper[i])
	}
}

// toInternal computes z for a (projected) x.
func (t *transform) toInternal(x, z []float64) {
	for i, v := range x {
		lo, hi := t.lower[i], t.upper[i]
		switch t.kind[i] {
		case boundFree:
			z[i] = v
		case boundBoth:
			s := 2*(v-lo)/(hi-lo) - 1
			s = math.Min(math.Max(s, -1+edgeMargin), 1-edgeMargin)
			z[i] = math.Asin(s)
		case boundLower:
			d := math.Max(v-lo, 0) + 1
			z[i] = math.Sqrt(math.Max(d*d-1, edgeMargin))
		case boundUpper:
			d := math.Max(hi-v, 0) + 1
			z[i] = math.Sqrt(math.Max(d*d-1, edgeMargin))
		case boundFixed:
			z[i] = 0
		}
	}
}

// toExternal computes x from z.
func (t *transform) toExternal(z, x []float64) {
	for i, v := range z {
		lo, hi := t.lower[i], t.upper[i]
		switch t.kind[i] {
		case boundFree:
			x[i] = v
		case boundBoth:
			x[i] = lo + (hi-lo)*(math.Sin(v)+1)/2
		case boundLower:
			x[i] = lo - 1 + math.Sqrt(v*v+1)
		case boundUpper:
			x[i] = hi + 1 - math.Sqrt(v*v+1)
		case boundFixed:
			x[i] = lo
		}
	}
}

// chain converts an x-space gradient into a z-space gradient in place.
func (t *transform) chain(z, grad []float64) {
	for i, v := range z {
		lo, hi := t.lower[i], t.upper[i]
		switch t.kind[i] {
		case boundBoth:
			grad[i] *= (hi - lo) * math.Cos(v) / 2
		case boundLower:
			grad[i] *= v / math.Sqrt(v*v+1)
		case boundUpper:
			grad[i] *= -v / math.Sqrt(v*v+1)
		case boundFixed:
			grad[i] = 0
		}
	}
}

// projectGradient zeroes gradient components that point out of the box at
// active bounds, giving the projected gradient used for stationarity tests.
func (t *transform) projectGradient(x, grad []float64) {
	for i, v := range x {
		if t.kind[i] == boundFree {
			continue
		}
		lo, hi := t.lower[i], t.upper[i]
		atLower := !math.IsInf(lo, -1) && v <= lo+1e-10*(1+math.Abs(lo))
		atUpper := !math.IsInf(hi, 1) && v >= hi-1e-10*(1+math.Abs(hi))
		if (atLower && grad[i] > 0) || (atUpper && grad[i] < 0) || t.kind[i] == boundFixed {
			grad[i] = 0
		}
	}
}
