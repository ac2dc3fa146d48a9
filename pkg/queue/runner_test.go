package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSubmitRequiresRunAndDone(t *testing.T) {
	r := NewRunner(nil)

	if err := r.Submit(context.Background(), Task{Name: "x"}); err == nil {
		t.Fatalf("expected error for task without Run/Done")
	}
	if err := r.Submit(context.Background(), Task{
		Name: "x",
		Run:  func(context.Context) error { return nil },
	}); err == nil {
		t.Fatalf("expected error for task without Done")
	}
}

func TestDoneReceivesRunError(t *testing.T) {
	r := NewRunner(nil)
	want := errors.New("boom")

	var got error
	var mu sync.Mutex
	err := r.Submit(context.Background(), Task{
		Name: "failing",
		Run:  func(context.Context) error { return want },
		Done: func(err error) {
			mu.Lock()
			got = err
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPanicDeliveredToDone(t *testing.T) {
	r := NewRunner(nil)

	var got error
	var mu sync.Mutex
	_ = r.Submit(context.Background(), Task{
		Name: "panicky",
		Run:  func(context.Context) error { panic("oh no") },
		Done: func(err error) {
			mu.Lock()
			got = err
			mu.Unlock()
		},
	})
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	if got == nil || !strings.Contains(got.Error(), "oh no") {
		t.Fatalf("panic not delivered to Done: %v", got)
	}
}

func TestMaxConcurrentBounds(t *testing.T) {
	r := NewRunner(nil, WithMaxConcurrent(2))

	var inFlight, peak int32
	block := make(chan struct{})
	for i := 0; i < 10; i++ {
		_ = r.Submit(context.Background(), Task{
			Name: "bounded",
			Run: func(context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				<-block
				atomic.AddInt32(&inFlight, -1)
				return nil
			},
			Done: func(error) {},
		})
	}
	close(block)
	r.Wait()

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Fatalf("concurrency bound exceeded: %d", p)
	}
}
