// Package viz provides terminal visualization for mass-spring simulations.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one simulation with parameter tuning and replay
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [Render]: draws obstacles, bonds and particles through a [Viewport]
//   - Theme selection with 4 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[]/   - Time travel (rewind/forward)
//
// # Recording
//
// The visualization supports recording simulation sessions as GIF animations
// using the G key. Recordings are saved to [GIFPath].
package viz
