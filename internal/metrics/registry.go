package metrics

import "github.com/san-kum/softbody/internal/dynamo"

// DefaultStabilityThreshold bounds positions and speeds for the stability metric.
const DefaultStabilityThreshold = 1e6

// Standard returns a fresh set of the metrics reported by every run.
func Standard(p dynamo.Params, bonds []dynamo.Bond, obstacles []dynamo.Obstacle) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(bonds, p),
		NewEnergyDrift(bonds, p),
		NewMomentum(p.Mass),
		NewMeanSpeed(),
		NewContainment(obstacles, p.ParticleRadius),
		NewStability(DefaultStabilityThreshold),
	}
}
