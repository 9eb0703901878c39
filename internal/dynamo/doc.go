// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [Control]: inputs held constant across one integration interval
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: single-step numerical integrator
//   - [Solver]: integrates a system across an interval and returns the
//     sub-trajectory
//
// # Example
//
//	sys := physics.NewVessel()
//	solver := integrators.NewDopri(1e-8, 1e-8)
//	states, err := solver.Integrate(sys, x0, [2]float64{0, 0.1}, u)
//	next := states[len(states)-1]
//
// Errors returned by solvers and drivers wrap the sentinels in this package;
// test them with [errors.Is].
package dynamo
