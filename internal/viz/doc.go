// Package viz renders vessel runs in the terminal.
//
// A run is shown as six panels laid out in three rows of two: the boundary
// inputs on the left (flow rates, feed concentration, feed temperature) and
// the vessel state on the right (volume, concentration, temperature). The
// same [Panels] feed the asciigraph rendering here, the interactive viewer
// and the image export.
package viz
