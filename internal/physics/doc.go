// Package physics implements the per-step force and contact stages of the
// mass-spring pipeline.
//
//   - [Accumulate]: spring forces along every bond plus gravity
//   - [ResolveCollisions]: push-out and reflection against static obstacles
//   - [TotalEnergy]: kinetic, spring and gravitational energy of a state
//
// Forces are only computed for bonded pairs. There is no neighbour search;
// the bond list is built once by package topology and reused every step.
//
// # Degenerate Geometry
//
// A bond whose endpoints coincide has no direction and contributes no
// force. A particle exactly at a circle's center is pushed out along
// (0, -1), which is "up" in screen coordinates.
package physics
