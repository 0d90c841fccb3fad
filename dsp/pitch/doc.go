// Package pitch provides monophonic fundamental-frequency estimation for
// live audio.
//
// [Detector] implements the YIN algorithm over a sliding window of roughly
// 33 ms (two periods of a 60 Hz tone) and re-analyses every 3 ms. The
// difference function is computed through an FFT cross-correlation by
// default; a direct O(N^2) kernel is available for reference and for
// platforms where planning fails.
//
// [AsyncDetector] moves the analysis off the audio goroutine: samples are
// half-band decimated, handed to a worker through a lock-free queue and the
// latest estimate is published through a [Readout].
//
// [Smoother] turns the raw, jittery estimates into a carrier-friendly
// frequency by gating on confidence and smoothing in the log2 domain.
//
// # Usage
//
//	det, err := pitch.NewDetector(48000)
//	if err != nil {
//		return err
//	}
//	for _, x := range block {
//		det.FeedSample(x)
//	}
//	res := det.Result()
//	fmt.Println(res.Frequency, pitch.NoteName(res.Frequency))
package pitch
