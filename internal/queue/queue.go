// Package queue provides a bounded, blocking FIFO whose end-of-stream is
// signaled by the number of producers still registered against it.
package queue

import (
	"errors"
	"iter"
	"sync"
)

var (
	ErrInvalidSize = errors.New("queue capacity must be greater than zero")
	ErrNoProducers = errors.New("queue has no registered producers")
)

// Rx is the consumer side of a queue.
type Rx[T any] interface {
	Pop() (T, bool)
	Seq() iter.Seq[T]
}

// Tx is the producer side of a queue. A producer must call RegisterProducer
// before its first Push and invoke the returned release exactly once when it
// is done pushing.
type Tx[T any] interface {
	Push(T)
	RegisterProducer() func()
}

type Queue[T any] struct {
	data      []T
	head      uint
	tail      uint
	producers int
	mu        sync.Mutex
	condFull  *sync.Cond
	condEmpty *sync.Cond
}

var (
	_ Rx[int] = (*Queue[int])(nil)
	_ Tx[int] = (*Queue[int])(nil)
)

// New is a function that instantiates a new Queue holding at most n items.
// Any value of n less than one results in ErrInvalidSize.
func New[T any](n int) (*Queue[T], error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	var q Queue[T]
	q.data = make([]T, n)
	q.condFull = sync.NewCond(&q.mu)
	q.condEmpty = sync.NewCond(&q.mu)
	return &q, nil
}

// Must is a function that returns a new instance of a Queue, or panics
// if an error is encountered.
func Must[T any](n int) *Queue[T] {
	q, err := New[T](n)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Queue[T]) size() int {
	return int(q.head - q.tail)
}

func (q *Queue[T]) empty() bool {
	return q.head == q.tail
}

func (q *Queue[T]) full() bool {
	return q.size() == len(q.data)
}

func (q *Queue[T]) index(value uint) uint {
	return value % uint(len(q.data))
}

// broadcast wakes every waiter on both conditions. Must be called with mu held.
func (q *Queue[T]) broadcast() {
	q.condEmpty.Broadcast()
	q.condFull.Broadcast()
}

// Push appends item at the tail, blocking while the queue is full.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.full() {
		q.condFull.Wait()
	}

	q.data[q.index(q.head)] = item
	q.head++

	q.broadcast()
}

// Pop removes and returns the head item. It blocks while the queue is empty
// and at least one producer is registered. Once the queue is empty and no
// producers remain, Pop returns false without blocking.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.empty() && q.producers > 0 {
		q.condEmpty.Wait()
	}

	var zero T
	if q.empty() {
		return zero, false
	}

	i := q.index(q.tail)
	item := q.data[i]
	q.data[i] = zero
	q.tail++

	q.broadcast()
	return item, true
}

// Seq yields items until end-of-stream.
func (q *Queue[T]) Seq() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			item, ok := q.Pop()
			if !ok {
				return
			}

			if !yield(item) {
				return
			}
		}
	}
}

// RegisterProducer increments the producer count and returns a function that
// unregisters it. The returned function is safe to call more than once; only
// the first call has an effect, so it is meant to be deferred.
func (q *Queue[T]) RegisterProducer() func() {
	q.mu.Lock()
	q.producers++
	q.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = q.UnregisterProducer()
		})
	}
}

// UnregisterProducer decrements the producer count. When the count reaches
// zero every blocked consumer is woken so it can observe end-of-stream.
// Calling it with no registered producers leaves the count at zero and
// returns ErrNoProducers.
func (q *Queue[T]) UnregisterProducer() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.producers == 0 {
		return ErrNoProducers
	}

	q.producers--
	if q.producers == 0 {
		q.broadcast()
	}
	return nil
}

func (q *Queue[T]) Capacity() int {
	return len(q.data)
}

// Len reports the number of buffered items. The value may be stale as soon as
// it is returned.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size()
}

// Producers reports the number of registered producers.
func (q *Queue[T]) Producers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.producers
}

type staticRx[T any] struct {
	mu    sync.Mutex
	items []T
	pos   int
}

func (s *staticRx[T]) Pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.pos == len(s.items) {
		return zero, false
	}

	item := s.items[s.pos]
	s.pos++
	return item, true
}

func (s *staticRx[T]) Seq() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			item, ok := s.Pop()
			if !ok {
				return
			}

			if !yield(item) {
				return
			}
		}
	}
}

// StaticRx returns an Rx that yields items in order and then reports
// end-of-stream.
func StaticRx[T any](items ...T) Rx[T] {
	return &staticRx[T]{
		items: items,
	}
}
