package model

import "strings"

// AllState is the name of the implicit state covering the whole span
// with no flag restriction. Every run has it even when configuration
// defines no states.
const AllState = "All"

// State restricts tab processing to the times when a data-quality flag
// was active. A state with an empty Definition covers the whole span.
type State struct {
	// Name is the display name, e.g. "Observing".
	Name string

	// Definition is the data-quality flag defining the state, e.g.
	// "H1:DMT-ANALYSIS_READY:1". Empty means unrestricted.
	Definition string

	// Active is filled during processing with the state's active
	// segments inside the run span.
	Active SegmentList
}

// IsAll reports whether the state is the unrestricted all-time state.
func (s *State) IsAll() bool {
	return s.Definition == "" || strings.EqualFold(s.Name, AllState)
}

// Key returns a filesystem-safe identifier for the state, used in plot
// file names and HTML anchors.
func (s *State) Key() string {
	k := strings.ToLower(s.Name)
	k = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, k)
	return strings.Trim(k, "_")
}
