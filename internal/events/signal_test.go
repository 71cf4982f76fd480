package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_DeliversToSubscriber(t *testing.T) {
	s := NewSignal[int]("reanalyze", 4)
	ch := s.Subscribe()

	require.True(t, s.Emit(1))
	require.True(t, s.Emit(2))

	assert.Equal(t, 1, <-ch)
	assert.Equal(t, 2, <-ch)
	assert.Equal(t, "reanalyze", s.Name())
}

func TestSignal_NoSubscriberDrops(t *testing.T) {
	s := NewSignal[string]("results", 1)

	assert.False(t, s.Emit("lost"))
	assert.Equal(t, uint64(1), s.Dropped())
}

func TestSignal_ResubscribeReplaces(t *testing.T) {
	s := NewSignal[int]("reanalyze", 1)
	first := s.Subscribe()
	second := s.Subscribe()

	_, open := <-first
	assert.False(t, open, "previous subscriber must be closed")

	require.True(t, s.Emit(7))
	assert.Equal(t, 7, <-second)
}

func TestSignal_FullBufferDrops(t *testing.T) {
	s := NewSignal[int]("results", 1)
	ch := s.Subscribe()

	assert.True(t, s.Emit(1))
	assert.False(t, s.Emit(2))
	assert.Equal(t, uint64(1), s.Dropped())
	assert.Equal(t, 1, <-ch)
}

func TestSignal_UnsubscribeOnlyCurrent(t *testing.T) {
	s := NewSignal[int]("results", 1)
	old := s.Subscribe()
	cur := s.Subscribe()

	s.Unsubscribe(old)
	assert.True(t, s.Emit(1), "stale unsubscribe must not detach the current subscriber")
	assert.Equal(t, 1, <-cur)

	s.Unsubscribe(cur)
	_, open := <-cur
	assert.False(t, open)
	assert.False(t, s.Emit(2))
}

func TestSignal_Close(t *testing.T) {
	s := NewSignal[int]("results", 1)
	ch := s.Subscribe()
	s.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.False(t, s.Emit(1))

	_, open = <-s.Subscribe()
	assert.False(t, open, "subscribe after close returns a closed channel")
}

func TestSignal_ConcurrentEmit(t *testing.T) {
	s := NewSignal[int]("results", 1000)
	ch := s.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Emit(j)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ch, 500)
}
