package relay

import (
	"sync"
	"testing"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := newQueue(4)
	defer q.Close()

	var got []int
	for i := 0; i < 100; i++ {
		q.Go(func() { got = append(got, i) })
	}
	q.Do(func() {})

	if len(got) != 100 {
		t.Fatalf("expected 100 jobs, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("job %d ran out of order: %d", i, v)
		}
	}
}

func TestQueueCloseIsIdempotentAndRunsInline(t *testing.T) {
	q := newQueue(1)
	q.Close()
	q.Close()

	ran := false
	q.Go(func() { ran = true })
	if !ran {
		t.Fatal("expected job to run inline after close")
	}
}

func TestQueueConcurrentSubmitters(t *testing.T) {
	q := newQueue(2)
	defer q.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Do(func() { counter++ })
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
}
