package modulation

// linearRamp moves towards its target in a fixed number of equal steps.
type linearRamp struct {
	current   float32
	target    float32
	step      float32
	length    int
	remaining int
}

// setLength sets the ramp duration in samples; 0 jumps immediately.
func (r *linearRamp) setLength(samples int) {
	r.length = max(samples, 0)
}

// reset jumps to v.
func (r *linearRamp) reset(v float32) {
	r.current = v
	r.target = v
	r.step = 0
	r.remaining = 0
}

func (r *linearRamp) setTarget(v float32) {
	if v == r.target {
		return
	}
	r.target = v
	if r.length == 0 {
		r.reset(v)
		return
	}
	r.step = (v - r.current) / float32(r.length)
	r.remaining = r.length
}

func (r *linearRamp) next() float32 {
	if r.remaining > 0 {
		r.remaining--
		if r.remaining == 0 {
			r.current = r.target
		} else {
			r.current += r.step
		}
	}
	return r.current
}
