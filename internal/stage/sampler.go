package stage

import "time"

// StartTracking launches the periodic breadcrumb sampler. Each tick
// logs the held fix as a tracking point; ticks without a fix are
// skipped.
func (r *Recorder) StartTracking() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return ErrNotRecording
	}
	if r.samplerStop != nil {
		return ErrTrackingActive
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	r.samplerStop = stop
	r.samplerDone = done
	go r.sample(stop, done)
	return nil
}

// StopTracking cancels the sampler and waits for it to exit. Once it
// returns, no further tracking point will be appended.
func (r *Recorder) StopTracking() {
	r.mu.Lock()
	stop := r.samplerStop
	done := r.samplerDone
	r.samplerStop = nil
	r.samplerDone = nil
	r.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (r *Recorder) sample(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.opts.TrackingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}

			r.mu.Lock()
			// A newer sampler or a closed stage invalidates this one.
			if r.samplerStop != stop || !r.recording {
				r.mu.Unlock()
				return
			}
			if r.lastFix != nil {
				_ = r.addTrackingPointLocked(TrackingPoint{
					Lat:        r.lastFix.Lat,
					Lng:        r.lastFix.Lng,
					RecordedAt: r.now(),
				})
			}
			r.mu.Unlock()
		}
	}
}
