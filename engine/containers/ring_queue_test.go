package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue(4)
	assert.True(t, rq.IsEmpty())
	assert.Equal(t, 0, rq.Len())

	assert.NoError(t, rq.Enqueue("a"))
	assert.NoError(t, rq.Enqueue("b"))
	assert.NoError(t, rq.Enqueue("c"))
	assert.Equal(t, 3, rq.Len())

	front, err := rq.Peek()
	assert.NoError(t, err)
	assert.Equal(t, "a", front)

	v, err := rq.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, "a", v)
	v, err = rq.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, "b", v)
	v, err = rq.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, "c", v)
	assert.True(t, rq.IsEmpty())

	_, err = rq.Dequeue()
	assert.Error(t, err)
}

func TestRingQueueWrapsAndFills(t *testing.T) {
	rq := NewRingQueue(2)
	assert.NoError(t, rq.Enqueue(1))
	assert.NoError(t, rq.Enqueue(2))
	assert.True(t, rq.IsFull())
	assert.Error(t, rq.Enqueue(3))

	v, err := rq.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	// Write index wraps around the backing array.
	assert.NoError(t, rq.Enqueue(3))
	v, _ = rq.Dequeue()
	assert.Equal(t, 2, v)
	v, _ = rq.Dequeue()
	assert.Equal(t, 3, v)
}
