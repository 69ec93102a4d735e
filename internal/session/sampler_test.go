package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedDetector struct {
	frames []frame
	pos    int
}

type frame struct {
	detections []Detection
	ok         bool
}

func (d *scriptedDetector) Detect() ([]Detection, bool) {
	if d.pos >= len(d.frames) {
		return nil, false
	}
	f := d.frames[d.pos]
	d.pos++
	return f.detections, f.ok
}

func person() Detection {
	return Detection{Class: "person", Score: 0.97}
}

func TestEvaluateNoPerson(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 3, 21, 0, time.UTC)

	flag, flagged := Evaluate(nil, now)
	require.True(t, flagged)
	assert.Equal(t, "14:03:21: No person detected.", flag.Message)
	assert.Equal(t, 0, flag.PersonCount)
	assert.Equal(t, now, flag.RecordedAt)
}

func TestEvaluateMultiplePeople(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 5, 0, time.UTC)

	flag, flagged := Evaluate([]Detection{person(), person(), person()}, now)
	require.True(t, flagged)
	assert.Equal(t, "09:00:05: Multiple people detected (3).", flag.Message)
	assert.Equal(t, 3, flag.PersonCount)
}

func TestEvaluateSinglePersonClean(t *testing.T) {
	_, flagged := Evaluate([]Detection{person()}, time.Now())
	assert.False(t, flagged)
}

func TestEvaluateIgnoresOtherClasses(t *testing.T) {
	detections := []Detection{
		{Class: "laptop", Score: 0.9},
		{Class: "cell phone", Score: 0.8},
	}
	flag, flagged := Evaluate(detections, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	require.True(t, flagged)
	assert.Equal(t, 0, flag.PersonCount)
}

func TestSamplerAppendsDistinctFlagsPerTick(t *testing.T) {
	clock := newFakeClock()
	detector := &scriptedDetector{frames: []frame{
		{nil, true},
		{nil, true},
	}}
	var flags []Flag
	s := NewSampler(detector, clock, func(f Flag) { flags = append(flags, f) })

	s.Sample()
	clock.now = clock.now.Add(SampleInterval)
	s.Sample()

	// Two empty frames yield two flags, not one deduplicated entry.
	require.Len(t, flags, 2)
	assert.NotEqual(t, flags[0].Message, flags[1].Message)
	assert.NotEqual(t, flags[0].RecordedAt, flags[1].RecordedAt)
}

func TestSamplerSkipsNotReadyFrames(t *testing.T) {
	detector := &scriptedDetector{frames: []frame{
		{nil, false},
		{[]Detection{person()}, true},
		{nil, false},
	}}
	var flags []Flag
	s := NewSampler(detector, newFakeClock(), func(f Flag) { flags = append(flags, f) })

	s.Sample()
	s.Sample()
	s.Sample()

	assert.Empty(t, flags)
}

func TestSamplerRunStops(t *testing.T) {
	clock := newFakeClock()
	detector := &scriptedDetector{frames: []frame{{nil, true}}}
	flagged := make(chan Flag, 1)
	s := NewSampler(detector, clock, func(f Flag) { flagged <- f })

	go s.Run()
	clock.advance(SampleInterval)
	<-flagged
	s.Stop()
}

func TestSamplerStopIsIdempotent(t *testing.T) {
	s := NewSampler(&scriptedDetector{}, newFakeClock(), func(Flag) {})

	go s.Run()
	// A shutdown path and a deferred cleanup may both call Stop.
	s.Stop()
	s.Stop()
}
