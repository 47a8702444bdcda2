package memory

const bytesPerMB = 1 << 20

// Stats is a point-in-time view of a pool plus browser-level counters.
type Stats struct {
	CurrentBytes uint64
	PeakBytes    uint64
	TabCount     int
	EngineBytes  uint64
}

// Snapshot reads the pool counters into a Stats value.
func (p *Pool) Snapshot(tabCount int) Stats {
	current := p.CurrentUsage()
	peak := p.PeakUsage()
	if current > peak {
		peak = current
	}
	return Stats{
		CurrentBytes: current,
		PeakBytes:    peak,
		TabCount:     tabCount,
	}
}

// MB returns current and peak usage in mebibytes.
func (s Stats) MB() (current, peak float64) {
	return float64(s.CurrentBytes) / bytesPerMB, float64(s.PeakBytes) / bytesPerMB
}
