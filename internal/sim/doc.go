// Package sim owns the simulation state and the fixed per-step pipeline:
// forces, integration, collisions.
//
// A [Simulation] moves from Constructed to Stepped on its first [Simulation.Step]
// and stays there. It never returns errors from Step; invalid configuration
// is rejected by [New], and numerical limits are reported up front by
// [CheckStability].
//
// # Thread Safety
//
// Simulation instances are NOT thread-safe. [Ensemble] runs independent
// simulations in parallel, one goroutine per simulation.
package sim
