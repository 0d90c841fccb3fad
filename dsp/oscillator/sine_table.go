package oscillator

import "math"

// sineTableSize is the number of entries spanning one period.
const sineTableSize = 2048

// sineTable holds one period plus a guard entry equal to the first, so
// interpolation never has to wrap.
var sineTable = func() [sineTableSize + 1]float32 {
	var t [sineTableSize + 1]float32
	for i := range sineTableSize {
		t[i] = float32(math.Sin(2 * math.Pi * float64(i) / sineTableSize))
	}
	t[sineTableSize] = t[0]
	return t
}()

// tableSine returns sin(2*pi*phase) for phase in [0, 1).
func tableSine(phase float64) float32 {
	pos := phase * sineTableSize
	idx := int(pos)
	if idx >= sineTableSize {
		idx = sineTableSize - 1
	}
	frac := float32(pos - float64(idx))
	a := sineTable[idx]
	return a + frac*(sineTable[idx+1]-a)
}
