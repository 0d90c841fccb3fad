package pitch

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidThreshold = errors.New("pitch: threshold must be in (0, 1)")
	ErrInvalidRange     = errors.New("pitch: invalid frequency range")
)

func validateThreshold(t float64) error {
	if !(t > 0 && t < 1) {
		return fmt.Errorf("%w: %f", ErrInvalidThreshold, t)
	}
	return nil
}

func validateRange(lo, hi float64) error {
	if !(lo > 0) || !(hi > lo) || hi > 1e6 {
		return fmt.Errorf("%w: [%f, %f]", ErrInvalidRange, lo, hi)
	}
	return nil
}

func validatePollInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("pitch: poll interval must be > 0: %s", d)
	}
	return nil
}

func validateQueueSeconds(s float64) error {
	if !(s > 0) || s > 60 {
		return fmt.Errorf("pitch: queue length must be in (0, 60] seconds: %f", s)
	}
	return nil
}
