package document

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"mdsync/common"
)

func TestLoop_Order(t *testing.T) {
	l := NewLoop(4, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	var (
		got  []int
		wg   sync.WaitGroup
		errc = make(chan error, 1)
	)
	go func() { errc <- l.Run(ctx) }()

	wg.Add(10)
	for i := range 10 {
		if !l.Post(func() { got = append(got, i); wg.Done() }) {
			t.Fatal("Post() on running loop returned false")
		}
	}
	// panicking function does not stop the loop
	l.Post(func() { panic("x") })
	wg.Wait()

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
	if l.Post(func() {}) {
		t.Error("Post() after loop stopped returned true")
	}
}

func TestDispatch_QueueReplayedInOrder(t *testing.T) {
	c := &Coordinator{log: zaptest.NewLogger(t)}
	c.policy = common.ReentryPolicyQueue
	var got []string
	c.dispatch("outer", func() {
		got = append(got, "outer")
		c.dispatch("a", func() { got = append(got, "a") })
		c.dispatch("b", func() { got = append(got, "b") })
	})
	want := []string{"outer", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if c.state != StateIdle || len(c.queue) != 0 {
		t.Errorf("state = %s, queue = %d", c.state, len(c.queue))
	}
}
