package queue

import (
	"sync"
	"testing"
)

type testPoint struct {
	Duration float64
	Samples  int
}

func TestQueue_New(t *testing.T) {
	q := New[testPoint]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_PushPop(t *testing.T) {
	q := New[testPoint]()

	// Pop from empty queue returns zero value
	zero := q.Pop()
	if zero.Duration != 0 || zero.Samples != 0 {
		t.Errorf("expected zero value, got %+v", zero)
	}

	q.Push(testPoint{Duration: 1.5, Samples: 10}, testPoint{Duration: 2.5, Samples: 20})
	first := q.Pop()
	if first.Duration != 1.5 || first.Samples != 10 {
		t.Errorf("expected {1.5, 10}, got %+v", first)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueue_PopBatch(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3, 4, 5)

	batch := q.PopBatch(3)
	if len(batch) != 3 || batch[0] != 1 || batch[2] != 3 {
		t.Errorf("unexpected batch: %v", batch)
	}
	if q.Len() != 2 {
		t.Errorf("expected length 2, got %d", q.Len())
	}

	// Asking for more than remains drains the rest
	batch = q.PopBatch(10)
	if len(batch) != 2 || batch[0] != 4 {
		t.Errorf("unexpected batch: %v", batch)
	}
	if batch = q.PopBatch(1); batch != nil {
		t.Errorf("expected nil batch from empty queue, got %v", batch)
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)

	q.Clear()

	if !q.Empty() {
		t.Error("expected empty queue after clear")
	}
}

func TestQueue_Drain(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)

	result := q.Drain()

	if len(result) != 3 {
		t.Errorf("expected 3 items, got %d", len(result))
	}
	if result[0] != 1 || result[1] != 2 || result[2] != 3 {
		t.Errorf("unexpected items: %v", result)
	}
	if !q.Empty() {
		t.Error("expected empty queue after drain")
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.Push(id)
		}(i)
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Errorf("expected 100 items, got %d", q.Len())
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pop()
		}()
	}
	wg.Wait()

	if q.Len() != 50 {
		t.Errorf("expected 50 items after pops, got %d", q.Len())
	}
}

func TestQueue_ConcurrentDrain(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		q.Push(i)
	}

	var wg sync.WaitGroup
	results := make(chan []int, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- q.Drain()
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for r := range results {
		total += len(r)
	}
	if total != 100 {
		t.Errorf("expected total 100 items, got %d", total)
	}
}

func TestQueue_StringType(t *testing.T) {
	q := New[string]()
	q.Push("hello", "world")

	first := q.Pop()
	if first != "hello" {
		t.Errorf("expected 'hello', got '%s'", first)
	}
}
