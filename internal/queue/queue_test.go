package queue_test

import (
	"testing"

	"github.com/t31hub/t31hub/internal/queue"
)

func TestNewQueue(t *testing.T) {
	t.Parallel()
	q := queue.New(4)
	if q == nil {
		t.Fatal("Expected non-nil queue")
	}
}

func TestPushAndDrain(t *testing.T) {
	t.Parallel()
	q := queue.New(4)

	if err := q.Push([]byte("value1")); err != nil {
		t.Fatalf("Unexpected error on Push: %v", err)
	}
	if err := q.Push([]byte("value2")); err != nil {
		t.Fatalf("Unexpected error on Push: %v", err)
	}
	if got := q.Len(); got != 2 {
		t.Errorf("Expected len 2, got %d", got)
	}

	values := q.Drain()
	if len(values) != 2 {
		t.Fatalf("Expected 2 values, got %d", len(values))
	}
	if string(values[0]) != "value1" {
		t.Errorf("Expected 'value1', got '%s'", string(values[0]))
	}
	if string(values[1]) != "value2" {
		t.Errorf("Expected 'value2', got '%s'", string(values[1]))
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	t.Parallel()
	q := queue.New(4)

	_ = q.Push([]byte("value1"))

	values := q.Drain()
	if len(values) != 1 {
		t.Fatalf("Expected 1 value, got %d", len(values))
	}

	values = q.Drain()
	if values != nil {
		t.Errorf("Expected nil after drain, got %v", values)
	}
}

func TestDrainEmptyQueue(t *testing.T) {
	t.Parallel()
	q := queue.New(4)

	values := q.Drain()
	if values != nil {
		t.Errorf("Expected nil for empty queue, got %v", values)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()
	q := queue.New(4)

	_ = q.Push([]byte("value1"))
	_ = q.Push([]byte("value2"))

	q.Flush()

	if got := q.Len(); got != 0 {
		t.Errorf("Expected len 0 after flush, got %d", got)
	}
	if values := q.Drain(); values != nil {
		t.Errorf("Expected nil after flush, got %v", values)
	}
}

func TestPushFullReturnsErrFull(t *testing.T) {
	t.Parallel()
	q := queue.New(2)

	if err := q.Push([]byte("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Push([]byte("b")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Push([]byte("c")); err != queue.ErrFull {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestPushBinaryData(t *testing.T) {
	t.Parallel()
	q := queue.New(4)

	data := []byte{0x00, 0xFF, 0xAB, 0xCD}
	if err := q.Push(data); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	values := q.Drain()
	if len(values) != 1 {
		t.Fatalf("Expected 1 value, got %d", len(values))
	}
	if len(values[0]) != 4 {
		t.Errorf("Expected 4 bytes, got %d", len(values[0]))
	}
	for i, b := range data {
		if values[0][i] != b {
			t.Errorf("Byte %d: expected %x, got %x", i, b, values[0][i])
		}
	}
}
