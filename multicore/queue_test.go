package multicore

import (
	"sync"
	"testing"
)

func TestQueueFIFO(t *testing.T) {
	var q Queue[int]
	for i := 1; i <= QueueCapacity; i++ {
		if !q.Push(i) {
			t.Fatalf("Push %d failed", i)
		}
	}
	if q.Len() != QueueCapacity {
		t.Errorf("Expected length %d, got %d", QueueCapacity, q.Len())
	}
	if q.Push(99) {
		t.Error("Expected push beyond capacity to fail")
	}

	for want := 1; want <= QueueCapacity; want++ {
		got, ok := q.Pop()
		if !ok || got != want {
			t.Errorf("Expected %d, got %d (%v)", want, got, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Expected empty queue")
	}
	if !q.IsEmpty() {
		t.Error("Expected IsEmpty")
	}
}

func TestQueueWrapsAround(t *testing.T) {
	var q Queue[int]
	next := 0
	for round := 0; round < 10; round++ {
		q.Push(round*2 + 0)
		q.Push(round*2 + 1)
		for i := 0; i < 2; i++ {
			got, ok := q.Pop()
			if !ok || got != next {
				t.Fatalf("Expected %d, got %d (%v)", next, got, ok)
			}
			next++
		}
	}
}

func TestQueueConcurrentOrder(t *testing.T) {
	var q Queue[int]
	const n = 20000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if q.Push(i) {
				i++
			}
		}
	}()

	for want := 0; want < n; {
		got, ok := q.Pop()
		if !ok {
			continue
		}
		if got != want {
			t.Fatalf("Expected %d, got %d", want, got)
		}
		want++
	}
	wg.Wait()
}
