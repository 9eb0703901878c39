// Package physics provides the mixing vessel model.
//
// [Vessel] implements [dynamo.System]. Its state is (volume, concentration,
// temperature) and its inputs are (outlet flow, inlet flow, feed
// concentration, feed temperature), indexed by the constants in this package:
//
//	sys := physics.NewVessel()
//	dx := sys.Derive(physics.NewState(1, 0, 350), physics.NewInputs(5, 5.2, 1, 300), 0)
//
// The model is autonomous given its inputs; the time argument is ignored.
package physics
