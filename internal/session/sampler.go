package session

import (
	"fmt"
	"sync"
	"time"
)

// SampleInterval is how often the proctoring sampler inspects the feed.
const SampleInterval = 8 * time.Second

// Detection is one object detection from the proctoring model. Only Class is
// inspected for flagging; Score and BBox are carried for audit payloads.
type Detection struct {
	Class string     `json:"class"`
	Score float64    `json:"score"`
	BBox  [4]float64 `json:"bbox"`
}

// Detector yields the current frame's detections. ok is false when no frame
// is ready yet (camera warming up, sample missing); that tick is skipped
// silently.
type Detector interface {
	Detect() (detections []Detection, ok bool)
}

// Flag is a single timestamped proctoring observation.
type Flag struct {
	Message     string
	PersonCount int
	RecordedAt  time.Time
}

// Evaluate inspects one detection sample and returns a flag when the person
// count is suspicious: zero persons or more than one. A single person yields
// no flag.
func Evaluate(detections []Detection, now time.Time) (Flag, bool) {
	persons := 0
	for _, d := range detections {
		if d.Class == "person" {
			persons++
		}
	}
	switch {
	case persons == 0:
		return Flag{
			Message:     fmt.Sprintf("%s: No person detected.", now.Format("15:04:05")),
			PersonCount: 0,
			RecordedAt:  now,
		}, true
	case persons > 1:
		return Flag{
			Message:     fmt.Sprintf("%s: Multiple people detected (%d).", now.Format("15:04:05"), persons),
			PersonCount: persons,
			RecordedAt:  now,
		}, true
	}
	return Flag{}, false
}

// Sampler runs the fixed-interval proctoring loop, appending every flag to
// the sink. Flags are never deduplicated: two consecutive empty frames yield
// two flags.
type Sampler struct {
	detector Detector
	clock    Clock
	sink     func(Flag)
	done     chan struct{}
	stopOnce sync.Once
}

// NewSampler wires a detector to a flag sink. The sink runs on the sampling
// goroutine and must not block.
func NewSampler(detector Detector, clock Clock, sink func(Flag)) *Sampler {
	return &Sampler{
		detector: detector,
		clock:    clock,
		sink:     sink,
		done:     make(chan struct{}),
	}
}

// Sample takes a single reading. Not-ready detectors are skipped without
// error; a suspicious reading appends exactly one flag.
func (s *Sampler) Sample() {
	detections, ok := s.detector.Detect()
	if !ok {
		return
	}
	if flag, flagged := Evaluate(detections, s.clock.Now()); flagged {
		s.sink(flag)
	}
}

// Run samples every SampleInterval until Stop. It blocks; call it on its own
// goroutine.
func (s *Sampler) Run() {
	ticker := s.clock.NewTicker(SampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			s.Sample()
		case <-s.done:
			return
		}
	}
}

// Stop ends the sampling loop. Safe to call more than once.
func (s *Sampler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}
