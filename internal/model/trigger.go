package model

// Trigger is a single event-trigger row produced by an event-trigger
// generator (ETG). Time, frequency, and SNR are first-class because every
// consumer needs them; any further columns ride along in Extra.
type Trigger struct {
	// Time is the representative GPS time of the event.
	Time float64

	// Frequency is the central or peak frequency in Hz.
	Frequency float64

	// SNR is the signal-to-noise ratio of the event.
	SNR float64

	// Duration is the event duration in seconds (tile height on a time
	// axis). Zero when the ETG does not report one.
	Duration float64

	// Bandwidth is the event bandwidth in Hz (tile height on a frequency
	// axis). Zero when the ETG does not report one.
	Bandwidth float64

	// Extra holds any additional named columns from the trigger file.
	Extra map[string]float64
}

// Column returns the named column value. The core columns are addressable
// by name alongside anything in Extra.
func (t *Trigger) Column(name string) (float64, bool) {
	switch name {
	case "time":
		return t.Time, true
	case "frequency":
		return t.Frequency, true
	case "snr":
		return t.SNR, true
	case "duration":
		return t.Duration, true
	case "bandwidth":
		return t.Bandwidth, true
	}
	v, ok := t.Extra[name]
	return v, ok
}
