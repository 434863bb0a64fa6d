package metronome

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/etude/internal/clock"
)

var epoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

type pulses struct {
	got []Pulse
}

func (p *pulses) add(pulse Pulse) { p.got = append(p.got, pulse) }

func TestStart_SpacingAndAccents(t *testing.T) {
	for _, bpm := range []int{30, 60, 72, 90, 120, 144, 240} {
		t.Run(fmt.Sprintf("%dbpm", bpm), func(t *testing.T) {
			c := clock.NewManual(epoch)
			m := New(c)
			rec := &pulses{}

			m.Start(bpm, rec.add)
			interval := Interval(bpm)
			c.Advance(interval*9 - time.Millisecond)

			require.Len(t, rec.got, 9)
			for i, p := range rec.got {
				assert.Equal(t, i, p.Index)
				assert.Equal(t, i%4 == 0, p.Accent, "pulse %d accent", i)
				assert.Equal(t, epoch.Add(time.Duration(i)*interval), p.At)
				if i > 0 {
					assert.Equal(t, interval, p.At.Sub(rec.got[i-1].At))
				}
			}
		})
	}
}

func TestInterval(t *testing.T) {
	assert.Equal(t, time.Second, Interval(60))
	assert.Equal(t, 500*time.Millisecond, Interval(120))
	assert.Equal(t, 250*time.Millisecond, Interval(240))
	assert.Zero(t, Interval(0))
	assert.Zero(t, Interval(-10))
}

func TestStart_FirstPulseImmediate(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)
	rec := &pulses{}

	m.Start(60, rec.add)
	c.Advance(0)

	require.Len(t, rec.got, 1)
	assert.True(t, rec.got[0].Accent)
	assert.True(t, m.Running())
	assert.Equal(t, 60, m.Tempo())
}

func TestStop_HaltsAndIsIdempotent(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)
	rec := &pulses{}

	assert.NotPanics(t, func() { m.Stop() })

	m.Start(120, rec.add)
	c.Advance(time.Second)
	n := len(rec.got)

	m.Stop()
	m.Stop()
	c.Advance(10 * time.Second)

	assert.Equal(t, n, len(rec.got))
	assert.False(t, m.Running())
	assert.Zero(t, m.Tempo())
	assert.Zero(t, c.Pending())
}

func TestStart_ReplacesPreviousRun(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)
	first := &pulses{}
	second := &pulses{}

	m.Start(60, first.add)
	c.Advance(1500 * time.Millisecond)
	m.Start(120, second.add)
	c.Advance(2 * time.Second)

	assert.Len(t, first.got, 2)
	assert.Len(t, second.got, 5)
	assert.Equal(t, 0, second.got[0].Index, "new run restarts beat counting")
	assert.Equal(t, 1, c.Pending(), "exactly one pending pulse")
}

func TestSetTempo_Faster(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)
	rec := &pulses{}

	m.Start(60, rec.add)
	c.Advance(500 * time.Millisecond)
	require.True(t, m.SetTempo(120))
	c.Advance(1600 * time.Millisecond)

	// 0ms at 60bpm, then 500, 1000, 1500, 2000 at 120bpm.
	require.Len(t, rec.got, 5)
	wantAt := []time.Duration{0, 500, 1000, 1500, 2000}
	for i, p := range rec.got {
		assert.Equal(t, i, p.Index, "no dropped or duplicated index")
		assert.Equal(t, epoch.Add(wantAt[i]*time.Millisecond), p.At)
	}
	assert.Equal(t, 120, m.Tempo())
}

func TestSetTempo_Slower(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)
	rec := &pulses{}

	m.Start(120, rec.add)
	c.Advance(600 * time.Millisecond)
	require.True(t, m.SetTempo(60))
	c.Advance(1400 * time.Millisecond)

	require.Len(t, rec.got, 3)
	assert.Equal(t, epoch.Add(500*time.Millisecond), rec.got[1].At)
	assert.Equal(t, epoch.Add(1500*time.Millisecond), rec.got[2].At)
}

func TestSetTempo_Rejected(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)

	assert.False(t, m.SetTempo(100), "idle metronome")
	m.Start(60, nil)
	assert.False(t, m.SetTempo(0))
	assert.False(t, m.SetTempo(-5))
	assert.Equal(t, 60, m.Tempo())
}

func TestStart_InvalidTempo(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)
	rec := &pulses{}

	h := m.Start(0, rec.add)
	c.Advance(time.Minute)

	assert.False(t, h.Active())
	assert.False(t, m.Running())
	assert.Empty(t, rec.got)
}

func TestRunCountIn_ExactBeats(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)

	type beat struct {
		index  int
		accent bool
	}
	var beats []beat
	completed := 0
	beatsAtComplete := -1

	m.RunCountIn(60, 4, func(i int, accent bool) {
		beats = append(beats, beat{i, accent})
	}, func() {
		completed++
		beatsAtComplete = len(beats)
	})

	c.Advance(10 * time.Second)

	assert.Equal(t, []beat{{0, true}, {1, false}, {2, false}, {3, false}}, beats)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 4, beatsAtComplete, "completion follows the last beat")
	assert.False(t, m.Running())
	assert.Zero(t, c.Pending())
}

func TestRunCountIn_CompletesOnFollowingDownbeat(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)
	beats := 0
	completed := false

	m.RunCountIn(120, 0, func(int, bool) { beats++ }, func() { completed = true })

	c.Advance(1999 * time.Millisecond)
	assert.Equal(t, 4, beats)
	assert.False(t, completed)
	assert.True(t, m.Running())

	c.Advance(time.Millisecond)
	assert.True(t, completed)
	assert.False(t, m.Running())
}

func TestRunCountIn_StopBeforeCompletion(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)
	beats := 0
	completed := false

	h := m.RunCountIn(60, 4, func(int, bool) { beats++ }, func() { completed = true })
	c.Advance(1500 * time.Millisecond)
	h.Stop()
	c.Advance(10 * time.Second)

	assert.Equal(t, 2, beats)
	assert.False(t, completed)
}

func TestHandle_StaleHandleIsInert(t *testing.T) {
	c := clock.NewManual(epoch)
	m := New(c)

	h1 := m.Start(60, nil)
	h2 := m.RunCountIn(60, 4, nil, nil)

	assert.False(t, h1.Active())
	h1.Stop()
	assert.True(t, h2.Active())
	assert.True(t, m.Running())
}

func TestFire_LateCallbackDoesNotBurst(t *testing.T) {
	base := clock.NewManual(epoch)
	m := New(laggyClock{Manual: base, lag: 2500 * time.Millisecond})
	rec := &pulses{}

	m.Start(60, rec.add)
	base.Advance(2500 * time.Millisecond)
	require.Len(t, rec.got, 1)

	// Two beats were missed while the first callback was late; they
	// collapse into a single pulse re-anchored at the late callback.
	base.Advance(2500 * time.Millisecond)
	require.Len(t, rec.got, 2)
	assert.Equal(t, 1, rec.got[1].Index)
	assert.Equal(t, epoch.Add(2500*time.Millisecond), rec.got[1].At)
}

type laggyClock struct {
	*clock.Manual
	lag time.Duration
}

func (c laggyClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	return c.Manual.AfterFunc(d+c.lag, f)
}
