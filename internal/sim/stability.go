package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/topology"
)

type StabilityWarning struct {
	Kind  string
	Value float64
	Limit float64
	Hint  string
}

func (w StabilityWarning) String() string {
	return fmt.Sprintf("%s: %.6g exceeds limit %.6g (%s)", w.Kind, w.Value, w.Limit, w.Hint)
}

// CheckStability compares dt against the explicit integration limits of the
// configuration. It never changes the configuration; an empty result means
// no limit was crossed.
func CheckStability(p dynamo.Params, bonds []dynamo.Bond, dt float64) []StabilityWarning {
	var out []StabilityWarning
	if !(dt > 0) || math.IsInf(dt, 0) {
		return append(out, StabilityWarning{Kind: "timestep", Value: dt, Hint: "dt must be a positive finite number"})
	}

	kMax := p.Stiffness
	for _, b := range bonds {
		kMax = math.Max(kMax, b.Stiffness)
	}

	if kMax > 0 && len(bonds) > 0 {
		// single linear spring: dt < 2/omega
		limit := 2 / math.Sqrt(kMax/p.Mass)
		if dt >= limit {
			out = append(out, StabilityWarning{Kind: "spring", Value: dt, Limit: limit, Hint: "reduce dt or stiffness"})
		} else {
			maxDeg := 0
			for _, d := range topology.Degrees(p.NumParticles(), bonds) {
				maxDeg = max(maxDeg, d)
			}
			meshLimit := 2 / math.Sqrt(2*float64(maxDeg)*kMax/p.Mass)
			if dt >= meshLimit {
				out = append(out, StabilityWarning{Kind: "mesh", Value: dt, Limit: meshLimit, Hint: "highly connected particles oscillate faster than a single spring"})
			}
		}
	}

	if p.Damping > 0 {
		limit := p.Mass / p.Damping
		if dt >= limit {
			out = append(out, StabilityWarning{Kind: "damping", Value: dt, Limit: limit, Hint: "damping overshoots within one step"})
		}
	}

	if p.Cutoff > 0 && p.Cutoff <= p.RestLength {
		out = append(out, StabilityWarning{Kind: "cutoff", Value: p.RestLength, Limit: p.Cutoff, Hint: "bonds are slack at rest length"})
	}

	return out
}
