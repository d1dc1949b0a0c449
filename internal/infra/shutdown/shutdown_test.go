package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestHandler_WaitContext_ReverseOrder(t *testing.T) {
	h := NewHandler(5 * time.Second)

	var (
		mu        sync.Mutex
		callOrder []int
	)
	for i := 1; i <= 3; i++ {
		h.OnShutdown(func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("hook context has no deadline")
			}
			mu.Lock()
			callOrder = append(callOrder, i)
			mu.Unlock()
			return nil
		})
	}

	select {
	case <-h.Done():
		t.Fatal("Done closed before shutdown")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.WaitContext(ctx); err != nil {
		t.Fatalf("WaitContext() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(callOrder) != 3 || callOrder[0] != 3 || callOrder[1] != 2 || callOrder[2] != 1 {
		t.Errorf("hooks called in order %v, want [3 2 1]", callOrder)
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after shutdown")
	}
}

func TestHandler_WaitContext_JoinsErrors(t *testing.T) {
	h := NewHandler(time.Second)
	errHTTP := errors.New("http")
	errStore := errors.New("storage")

	ran := 0
	h.OnShutdown(func(context.Context) error { ran++; return errStore })
	h.OnShutdown(func(context.Context) error { ran++; return nil })
	h.OnShutdown(func(context.Context) error { ran++; return errHTTP })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.WaitContext(ctx)
	if !errors.Is(err, errHTTP) || !errors.Is(err, errStore) {
		t.Errorf("WaitContext() error = %v, want both hook errors", err)
	}
	if ran != 3 {
		t.Errorf("ran %d hooks, want 3", ran)
	}
}

func TestHandler_Wait_Signal(t *testing.T) {
	h := NewHandler(time.Second)
	called := make(chan struct{}, 1)
	h.OnShutdown(func(context.Context) error {
		called <- struct{}{}
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()
	time.Sleep(50 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}
	select {
	case <-called:
	default:
		t.Error("hook not called")
	}
}
