// Package model defines the core data types shared across the summary
// tools: channels, segments, trigger rows, time series, and states.
//
// These types are deliberately plain. They carry data between the fetch
// layers (cache, segments, data, triggers) and the rendering layers
// (plot, tabs, report) without behavior of their own beyond parsing and
// simple interval arithmetic.
package model
