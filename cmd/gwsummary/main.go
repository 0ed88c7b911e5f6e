// Package main provides the entry point for the gwsummary CLI.
//
// gwsummary reads INI configuration describing report tabs, fetches
// segments, time-series, and event triggers for a time span, renders
// per-tab figures, and writes a static HTML summary tree.
//
// Usage:
//
//	gwsummary day [YYYYMMDD] -i L1 -f l1summary.ini
//	gwsummary gps <start> <end> -i L1 -f l1summary.ini
//
// See --help for all available options.
package main

// main is the entry point for gwsummary.
func main() {
	Execute()
}
