package player_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeview/plumeview/internal/player"
)

// recorder collects callback invocations for assertions.
type recorder struct {
	mu      sync.Mutex
	indices []int
}

func (r *recorder) record(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indices = append(r.indices, i)
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.indices))
	copy(out, r.indices)
	return out
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.indices)
}

func newController(timesteps int, interval time.Duration, rec *recorder) *player.Controller {
	cfg := player.Config{Timesteps: timesteps, Interval: interval}
	if rec != nil {
		cfg.OnChange = rec.record
	}
	return player.NewController(cfg)
}

func TestController_StartsStoppedAtZero(t *testing.T) {
	c := newController(5, 0, nil)

	assert.Equal(t, 0, c.Current())
	assert.False(t, c.Playing())
	assert.Equal(t, 5, c.Count())
}

func TestSetTimestep_FiresCallback(t *testing.T) {
	rec := &recorder{}
	c := newController(5, 0, rec)

	c.SetTimestep(3)

	assert.Equal(t, 3, c.Current())
	assert.Equal(t, []int{3}, rec.snapshot())
}

func TestSetTimestep_OutOfRangeIsSilentlyIgnored(t *testing.T) {
	rec := &recorder{}
	c := newController(3, 0, rec)
	c.SetTimestep(1)

	c.SetTimestep(5)
	c.SetTimestep(-1)
	c.SetTimestep(3)

	assert.Equal(t, 1, c.Current(), "index must stay put on out-of-range seeks")
	assert.Equal(t, []int{1}, rec.snapshot(), "no callback for rejected seeks")
}

func TestNext_ClampsAtEnd(t *testing.T) {
	rec := &recorder{}
	c := newController(3, 0, rec)
	c.SetTimestep(2)

	c.Next()

	assert.Equal(t, 2, c.Current())
	assert.Equal(t, []int{2}, rec.snapshot())
}

func TestPrevious_ClampsAtStart(t *testing.T) {
	rec := &recorder{}
	c := newController(3, 0, rec)

	c.Previous()

	assert.Equal(t, 0, c.Current())
	assert.Empty(t, rec.snapshot())
}

func TestPlay_AdvancesPeriodically(t *testing.T) {
	rec := &recorder{}
	c := newController(10, 10*time.Millisecond, rec)
	defer c.Pause()

	c.Play()

	require.Eventually(t, func() bool {
		return rec.len() >= 3
	}, time.Second, 5*time.Millisecond)

	got := rec.snapshot()[:3]
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, c.Playing())
}

func TestPlay_WrapsAtLastTimestep(t *testing.T) {
	rec := &recorder{}
	c := newController(3, 10*time.Millisecond, rec)
	defer c.Pause()

	c.SetTimestep(2)
	c.Play()

	require.Eventually(t, func() bool {
		return rec.len() >= 2
	}, time.Second, 5*time.Millisecond)

	got := rec.snapshot()
	assert.Equal(t, 2, got[0])
	assert.Equal(t, 0, got[1], "playback must wrap to the first timestep")
}

func TestPause_StopsAdvancing(t *testing.T) {
	rec := &recorder{}
	c := newController(10, 10*time.Millisecond, rec)

	c.Play()
	require.Eventually(t, func() bool {
		return rec.len() >= 1
	}, time.Second, 5*time.Millisecond)

	c.Pause()
	assert.False(t, c.Playing())

	settled := rec.len()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, rec.len(), "no ticks may fire after pause")
}

func TestPlay_WhilePlayingIsNoOp(t *testing.T) {
	rec := &recorder{}
	c := newController(10, 10*time.Millisecond, rec)
	defer c.Pause()

	c.Play()
	c.Play()

	require.Eventually(t, func() bool {
		return rec.len() >= 3
	}, time.Second, 5*time.Millisecond)

	got := rec.snapshot()[:3]
	assert.Equal(t, []int{1, 2, 3}, got, "a second Play must not spawn a second timer")
}

func TestPlay_EmptyControllerIsNoOp(t *testing.T) {
	c := newController(0, time.Millisecond, nil)
	c.Play()
	assert.False(t, c.Playing())
}

func TestSetTimestep_RestartsTimerWhilePlaying(t *testing.T) {
	rec := &recorder{}
	c := newController(100, 50*time.Millisecond, rec)
	defer c.Pause()

	c.Play()

	// Keep seeking faster than the tick interval; the timer restarts on
	// every seek, so no automatic advance should land in between.
	for i := 1; i <= 5; i++ {
		c.SetTimestep(i * 10)
		time.Sleep(10 * time.Millisecond)
	}

	got := rec.snapshot()
	require.Len(t, got, 5)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, got)
}
