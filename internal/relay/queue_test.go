package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	q.Enqueue([]byte("a"))
	q.Enqueue([]byte("b"))
	q.Enqueue([]byte("c"))

	ctx := context.Background()
	for _, expected := range []string{"a", "b", "c"} {
		item, err := q.DequeueNext(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, string(item))
	}
	assert.Equal(t, 0, q.Len())
}

func TestDequeueNextBlocksUntilEnqueue(t *testing.T) {
	q := NewQueue()

	done := make(chan string, 1)
	go func() {
		item, err := q.DequeueNext(context.Background())
		if err != nil {
			done <- "error: " + err.Error()
			return
		}
		done <- string(item)
	}()

	select {
	case got := <-done:
		t.Fatalf("dequeue returned %q before anything was enqueued", got)
	case <-time.After(50 * time.Millisecond):
	}

	q.Enqueue([]byte("x"))

	select {
	case got := <-done:
		assert.Equal(t, "x", got)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake up after enqueue")
	}
}

func TestDequeueNextHonorsContext(t *testing.T) {
	q := NewQueue()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.DequeueNext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDrainAll(t *testing.T) {
	q := NewQueue()
	q.Enqueue([]byte("a"))
	q.Enqueue([]byte("b"))

	drained := q.DrainAll()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", string(drained[0]))
	assert.Equal(t, "b", string(drained[1]))
	assert.Equal(t, 0, q.Len())
}

func TestReloadReplacesStaleEntries(t *testing.T) {
	q := NewQueue()
	q.Enqueue([]byte("stale-1"))
	q.Enqueue([]byte("stale-2"))

	q.Reload(func() [][]byte {
		return [][]byte{[]byte("resent-1"), []byte("resent-2")}
	})
	q.Enqueue([]byte("fresh"))

	ctx := context.Background()
	for _, expected := range []string{"resent-1", "resent-2", "fresh"} {
		item, err := q.DequeueNext(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, string(item))
	}
}

func TestReloadWakesWaitingConsumer(t *testing.T) {
	q := NewQueue()

	done := make(chan string, 1)
	go func() {
		item, _ := q.DequeueNext(context.Background())
		done <- string(item)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Reload(func() [][]byte {
		return [][]byte{[]byte("requeued")}
	})

	select {
	case got := <-done:
		assert.Equal(t, "requeued", got)
	case <-time.After(time.Second):
		t.Fatal("consumer was not woken by reload")
	}
}

func TestChatRegistry(t *testing.T) {
	r := NewChatRegistry()
	r.Add("100")
	r.Add("200")
	r.Add("100")
	r.Add("300")

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"100", "200", "300"}, r.List())
}
