// Package viz is a terminal monitor for a running fdmctl server.
//
// The monitor polls a set of properties over the command protocol and
// draws them with Bubble Tea:
//
//   - [Monitor]: property table, history chart and ground track
//   - [Canvas]: Braille pixel canvas used for the track and horizon
//
// # Key Bindings
//
//	Space - Hold/Resume the simulation
//	I     - Iterate one batch of frames while held
//	R     - reset_ic complete
//	S     - reset_ic state
//	Tab   - Cycle the charted property
//	T     - Cycle color themes
//	Q     - Leave the monitor
package viz
