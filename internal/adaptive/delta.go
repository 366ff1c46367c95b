package adaptive

// Delta maps a reaction symbol and the current score to a signed score
// change. The magnitude is damped near the top of the scale and boosted
// near the bottom, so the controller converges slowly toward extremes and
// recovers quickly from them. Pure function of its inputs.
func (m *Manager) Delta(symbol Symbol, currentScore float64) float64 {
	base, ok := m.config.BaseDeltas[symbol]
	if !ok {
		return 0
	}

	switch {
	case currentScore > m.config.HighDampAbove:
		return base * m.config.HighDampFactor
	case currentScore <= m.config.LowBoostAtOrBelow:
		return base * m.config.LowBoostFactor
	default:
		return base
	}
}
