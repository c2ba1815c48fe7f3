// Package dynamo provides the core data model for mass-spring simulation.
//
// The package defines the types shared by every stage of a step:
//
//   - [Particle]: position and velocity of a point mass
//   - [Bond]: fixed elastic connection between two particle indices
//   - [Obstacle]: static circle or axis-aligned box
//   - [Params]: construction-time configuration
//   - [Frame]: read-only snapshot passed to observers and metrics
//
// # Example
//
//	p := dynamo.DefaultParams()
//	s, err := sim.New(p, []dynamo.Obstacle{dynamo.Circle(25, 80, 20)})
//	for i := 0; i < 100; i++ {
//		s.Step(p.TimeStep)
//	}
//	positions := s.Positions()
//
// # Thread Safety
//
// Nothing in this package synchronizes. A simulation and its particles are
// owned by a single goroutine.
package dynamo
