// Package frames holds the rotation algebra shared by the propagation model
// and the initial-condition reset.
//
// Three orientations are kept apart as distinct types so they cannot be
// mixed up:
//
//   - [LocalToBody]: attitude relative to the local-level (NED) frame,
//     owned by the initial conditions.
//   - [InertialToLocal]: the transform from the inertial frame to the
//     local-level frame at the vehicle position, derived by propagation.
//   - [InertialToBody]: the attitude that propagation integrates.
//
// Quaternions follow the transform convention: q.T() maps vectors
// expressed in the "from" frame to the "to" frame, and
// (p.Mul(q)).T() == q.T().Mul(p.T()), so the left operand is the rotation
// applied first.
package frames
