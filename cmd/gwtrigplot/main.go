// Package main provides the entry point for the gwtrigplot CLI.
//
// gwtrigplot plots event triggers for one channel over a GPS span as a
// time-frequency scatter colored by signal-to-noise ratio, or as a tile
// plot sized by duration and bandwidth.
//
// Usage:
//
//	gwtrigplot L1:GDS-CALIB_STRAIN 1187008800 1187012400 --cache triggers.lcf
//	gwtrigplot L1:GDS-CALIB_STRAIN 1187008800 1187012400 --snr 8 ylim=[10,2000]
//
// Arguments after the span of the form key=value become plot
// parameters. See --help for all available options.
package main

// main is the entry point for gwtrigplot.
func main() {
	Execute()
}
