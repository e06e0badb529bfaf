package queue

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const queueCapacity int = 50

const messageCount uint64 = 1000

type item struct {
	producer int
	seq      uint64
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func feed(q *Queue[item], producer int) {
	for i := range messageCount {
		q.Push(item{producer: producer, seq: i})
	}
}

func consume(q *Queue[item], count *atomic.Uint64) {
	for {
		_, ok := q.Pop()
		if !ok {
			break
		}
		count.Add(1)
	}
}

// run starts producers and consumers against a fresh queue and returns the
// number of items consumed. Producers register before any consumer starts.
func run(tb testing.TB, producers, consumers int) uint64 {
	q := Must[item](queueCapacity)

	var count atomic.Uint64
	var pwg sync.WaitGroup
	var cwg sync.WaitGroup

	for p := range producers {
		release := q.RegisterProducer()
		pwg.Add(1)
		go func() {
			defer pwg.Done()
			defer release()
			feed(q, p)
		}()
	}

	for range consumers {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			consume(q, &count)
		}()
	}

	pwg.Wait()
	cwg.Wait()

	require.Zero(tb, q.Len())
	require.Zero(tb, q.Producers())
	return count.Load()
}

func BenchmarkQueue(b *testing.B) {
	b.Run("single_producer_single_consumer", func(b *testing.B) {
		for b.Loop() {
			require.Equal(b, messageCount, run(b, 1, 1))
		}
	})

	b.Run("multiple_producer_multiple_consumer", func(b *testing.B) {
		for b.Loop() {
			require.Equal(b, messageCount*4, run(b, 4, 4))
		}
	})
}

func TestNew(t *testing.T) {
	for _, n := range []int{-1, 0} {
		q, err := New[int](n)
		require.ErrorIs(t, err, ErrInvalidSize)
		require.Nil(t, q)
	}

	require.Panics(t, func() { Must[int](0) })

	for _, n := range []int{1, 3, 50, 64} {
		q, err := New[int](n)
		require.NoError(t, err)
		require.Equal(t, n, q.Capacity())
		require.Zero(t, q.Len())
		require.Zero(t, q.Producers())
	}
}

func TestQueue(t *testing.T) {
	t.Run("single_producer_single_consumer", func(t *testing.T) {
		require.Equal(t, messageCount, run(t, 1, 1))
	})

	t.Run("multiple_producer_single_consumer", func(t *testing.T) {
		require.Equal(t, messageCount*4, run(t, 4, 1))
	})

	t.Run("single_producer_multiple_consumer", func(t *testing.T) {
		require.Equal(t, messageCount, run(t, 1, 4))
	})

	t.Run("multiple_producer_multiple_consumer", func(t *testing.T) {
		require.Equal(t, messageCount*8, run(t, 8, 8))
	})
}

func TestPopWithoutProducersReturnsImmediately(t *testing.T) {
	q := Must[int](4)

	v, ok := q.Pop()
	require.False(t, ok)
	require.Zero(t, v)
}

func TestPopDrainsBufferAfterProducersLeave(t *testing.T) {
	q := Must[int](4)

	release := q.RegisterProducer()
	q.Push(1)
	q.Push(2)
	release()

	require.Equal(t, []int{1, 2}, slices.Collect(q.Seq()))

	_, ok := q.Pop()
	require.False(t, ok)
}

func TestWrapAround(t *testing.T) {
	q := Must[int](3)
	release := q.RegisterProducer()
	defer release()

	for round := range 10 {
		q.Push(round * 2)
		q.Push(round*2 + 1)
		require.Equal(t, 2, q.Len())

		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, round*2, v)

		v, ok = q.Pop()
		require.True(t, ok)
		require.Equal(t, round*2+1, v)
	}
}

func TestPushBlocksWhileFull(t *testing.T) {
	q := Must[int](2)
	release := q.RegisterProducer()

	q.Push(1)
	q.Push(2)

	pushed := make(chan struct{})
	go func() {
		q.Push(3)
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push on a full queue returned")
	case <-time.After(50 * time.Millisecond):
	}
	require.Equal(t, 2, q.Len())

	v, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, 1, v)

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push did not resume after pop")
	}

	release()
	require.Equal(t, []int{2, 3}, slices.Collect(q.Seq()))
}

func TestBlockedConsumersObserveEndOfStream(t *testing.T) {
	q := Must[int](4)
	first := q.RegisterProducer()
	second := q.RegisterProducer()

	const consumers = 8
	var wg sync.WaitGroup
	var got atomic.Int64
	for range consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := q.Pop(); ok {
				got.Add(1)
			}
		}()
	}

	first()
	require.Equal(t, 1, q.Producers())

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("consumers returned while a producer is still registered")
	case <-time.After(50 * time.Millisecond):
	}

	second()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumers still blocked after the last producer left")
	}
	require.Zero(t, got.Load())

	// every later pop returns end-of-stream as well
	_, ok := q.Pop()
	require.False(t, ok)
}

func TestUnregisterProducer(t *testing.T) {
	t.Run("unbalanced_unregister_is_rejected", func(t *testing.T) {
		q := Must[int](1)
		require.ErrorIs(t, q.UnregisterProducer(), ErrNoProducers)
		require.Zero(t, q.Producers())

		q.RegisterProducer()
		require.NoError(t, q.UnregisterProducer())
		require.ErrorIs(t, q.UnregisterProducer(), ErrNoProducers)
		require.Zero(t, q.Producers())
	})

	t.Run("release_is_idempotent", func(t *testing.T) {
		q := Must[int](1)
		release := q.RegisterProducer()
		q.RegisterProducer()
		require.Equal(t, 2, q.Producers())

		release()
		release()
		release()
		require.Equal(t, 1, q.Producers())
	})
}

func TestPerProducerOrder(t *testing.T) {
	q := Must[item](7)

	const producers = 6
	var wg sync.WaitGroup
	for p := range producers {
		release := q.RegisterProducer()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer release()
			feed(q, p)
		}()
	}

	next := make([]uint64, producers)
	for it := range q.Seq() {
		require.Equal(t, next[it.producer], it.seq, "producer %d out of order", it.producer)
		next[it.producer]++
	}
	wg.Wait()

	for p := range producers {
		require.Equal(t, messageCount, next[p])
	}
}

func TestNoLossNoDuplication(t *testing.T) {
	q := Must[int](5)

	const (
		producers = 8
		consumers = 5
		perProd   = 500
	)

	var pwg sync.WaitGroup
	for p := range producers {
		release := q.RegisterProducer()
		pwg.Add(1)
		go func() {
			defer pwg.Done()
			defer release()
			for i := range perProd {
				q.Push(p*perProd + i)
			}
		}()
	}

	var mu sync.Mutex
	seen := make(map[int]int, producers*perProd)
	var maxLen atomic.Int64
	var cwg sync.WaitGroup
	for range consumers {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for v := range q.Seq() {
				if l := int64(q.Len()); l > maxLen.Load() {
					maxLen.Store(l)
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}

	pwg.Wait()
	cwg.Wait()

	require.Len(t, seen, producers*perProd)
	for v, n := range seen {
		require.Equal(t, 1, n, "value %d delivered %d times", v, n)
	}
	require.LessOrEqual(t, maxLen.Load(), int64(q.Capacity()))
}

func TestStaticRx(t *testing.T) {
	rx := StaticRx("a", "b", "c")
	require.Equal(t, []string{"a", "b", "c"}, slices.Collect(rx.Seq()))

	_, ok := rx.Pop()
	require.False(t, ok)
}
