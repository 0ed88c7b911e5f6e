package model

// TimeSeries is a regularly-sampled data stream for one channel.
type TimeSeries struct {
	// Channel is the full channel name (including any type suffix).
	Channel string

	// Epoch is the GPS time of the first sample.
	Epoch float64

	// SampleRate in Hz.
	SampleRate float64

	// Unit is the physical unit of the samples, when known.
	Unit string

	// Samples holds the data values.
	Samples []float64
}

// End returns the GPS time just after the last sample.
func (ts *TimeSeries) End() float64 {
	if ts.SampleRate == 0 {
		return ts.Epoch
	}
	return ts.Epoch + float64(len(ts.Samples))/ts.SampleRate
}

// TimeAt returns the GPS time of sample i.
func (ts *TimeSeries) TimeAt(i int) float64 {
	return ts.Epoch + float64(i)/ts.SampleRate
}

// Crop returns the subset of the series inside [start, end), sharing the
// underlying sample storage.
func (ts *TimeSeries) Crop(start, end float64) *TimeSeries {
	if ts.SampleRate == 0 || len(ts.Samples) == 0 {
		return ts
	}
	lo := 0
	if start > ts.Epoch {
		lo = int((start - ts.Epoch) * ts.SampleRate)
	}
	hi := len(ts.Samples)
	if end < ts.End() {
		hi = int((end - ts.Epoch) * ts.SampleRate)
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(ts.Samples) {
		hi = len(ts.Samples)
	}
	if lo >= hi {
		return &TimeSeries{Channel: ts.Channel, Epoch: start, SampleRate: ts.SampleRate, Unit: ts.Unit}
	}
	return &TimeSeries{
		Channel:    ts.Channel,
		Epoch:      ts.TimeAt(lo),
		SampleRate: ts.SampleRate,
		Unit:       ts.Unit,
		Samples:    ts.Samples[lo:hi],
	}
}
