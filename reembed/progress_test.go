package reembed

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "storyboards", 4, 2)

	tracker.Start()
	tracker.Done()
	tracker.Done()
	tracker.Fail()
	tracker.Done()
	time.Sleep(time.Millisecond)

	assert.Greater(t, tracker.Elapsed(), time.Duration(0))

	output := buf.String()
	assert.Contains(t, output, "4/4 (100.0%), 1 failed")
	assert.Contains(t, output, "storyboards/s")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "storyboards", 10, 100)

	tracker.Start()
	tracker.Done()
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "1/10 (10.0%)")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should print newline")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "storyboards", 0, 10)

	tracker.Start()
	tracker.Finish()

	assert.Contains(t, buf.String(), "0/0 (100.0%)")
}

func TestProgressTracker_GrowsTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "storyboards", 1, 1)

	tracker.Start()
	tracker.Done()
	tracker.Done()

	assert.Contains(t, buf.String(), "2/2")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "storyboards", 100, 1)

	tracker.Done()
	tracker.Finish()

	assert.Equal(t, "", buf.String(), "should have no output when not started")
	assert.Equal(t, time.Duration(0), tracker.Elapsed())
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "storyboards", 1000, 3)
	tracker.Start()

	tracker.Done()
	tracker.Done()
	assert.Equal(t, "", buf.String(), "should not print under interval")

	tracker.Done()
	assert.NotEmpty(t, buf.String(), "should print at interval")
}

func TestProgressTracker_Concurrent(t *testing.T) {
	tracker := NewProgressTracker(nil, "storyboards", 100, 10)
	tracker.Start()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Done()
		}()
	}
	wg.Wait()

	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	assert.Equal(t, 100, tracker.done)
}
