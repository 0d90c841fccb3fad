package oscillator

// polyBLEP returns the two-sample polynomial band-limited step correction
// for phase t in [0, 1) and phase increment dt. It is zero away from the
// discontinuity at t = 0 and when dt <= 0.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	default:
		return 0
	}
}
