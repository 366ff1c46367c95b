package adaptive

// Classify maps the updated score and the previous band to the current
// band. While in a band the score must reach that band's ExitUp threshold
// to ascend and fall below its ExitDown guard to descend, which is what
// keeps a score oscillating near a boundary from flipping the displayed
// difficulty on every reaction. An unknown previous band is treated as
// Normal.
func (m *Manager) Classify(score float64, previous Band) Band {
	band := previous
	if !band.Valid() {
		band = BandNormal
	}

	// Walk one band at a time so a large jump (e.g. after a reset or a
	// config change) still lands on a stable band deterministically.
	for {
		idx := bandIndex(band)
		th := m.config.Thresholds[band]

		if idx < len(bandOrder)-1 && th.ExitUp > 0 && score >= th.ExitUp {
			band = bandOrder[idx+1]
			continue
		}
		if idx > 0 && score < th.ExitDown {
			band = bandOrder[idx-1]
			continue
		}
		return band
	}
}

func bandIndex(b Band) int {
	for i, candidate := range bandOrder {
		if candidate == b {
			return i
		}
	}
	return bandIndex(BandNormal)
}
