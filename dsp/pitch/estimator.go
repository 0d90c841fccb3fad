package pitch

// Estimator is the shared API of the synchronous and asynchronous detectors.
//
// Prepare and FeedSample are called from the audio goroutine. Result may be
// called from anywhere for [AsyncDetector] and only from the feeding
// goroutine for [Detector].
type Estimator interface {
	Prepare(sampleRate float64)
	FeedSample(x float32)
	Result() Result
}

var (
	_ Estimator = (*Detector)(nil)
	_ Estimator = (*AsyncDetector)(nil)
)
