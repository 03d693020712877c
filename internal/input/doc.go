// Package input implements the line-oriented command protocol remote
// clients use to inspect and drive a running simulation.
//
// A Session is polled once per executive tick from the simulation
// goroutine. It appends whatever bytes the transport has, cuts complete
// CR/LF terminated lines out of its buffer and dispatches each one:
//
//	get {property}           read a scalar, or list a branch while held
//	set {property} {value}   write a scalar
//	hold | resume            pause or unpause stepping
//	iterate {n}              run exactly n steps, then hold
//	reset_ic {complete|state}
//	info | help | quit
//
// Every command ends in a reply written back on the same transport. A
// failing get, set or iterate abandons the rest of the poll.
package input
