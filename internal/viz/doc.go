// Package viz provides the terminal live view used by the watch command.
//
// A [Model] is a Bubble Tea model that steps a [Source] on every frame and
// draws the trajectory on a braille [Canvas], next to a panel with the time,
// step size, adaptive statistics and asciigraph traces.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial state
//	T     - Cycle colour themes
//	+/-   - Double/halve the steps taken per frame
//	?     - Toggle help
//	Q     - Quit
package viz
