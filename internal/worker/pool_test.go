package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_PreservesInputOrder(t *testing.T) {
	p := NewPool[int, int]("square", 4, func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})

	tasks := p.Execute(context.Background(), []int{1, 2, 3, 4, 5, 6, 7, 8})

	require.Len(t, tasks, 8)
	for i, task := range tasks {
		assert.True(t, task.Done)
		assert.Equal(t, i+1, task.Input)
		assert.Equal(t, (i+1)*(i+1), task.Result)
		assert.NoError(t, task.Err)
	}
}

func TestPool_RecordsErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewPool[int, string]("odd", 2, func(ctx context.Context, n int) (string, error) {
		if n%2 == 1 {
			return "", boom
		}
		return "even", nil
	})

	tasks := p.Execute(context.Background(), []int{1, 2, 3})

	assert.ErrorIs(t, tasks[0].Err, boom)
	assert.Equal(t, "even", tasks[1].Result)
	assert.ErrorIs(t, tasks[2].Err, boom)
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	p := NewPool[int, int]("noop", 1, func(ctx context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})

	tasks := p.Execute(ctx, []int{1, 2, 3})

	require.Len(t, tasks, 3)
	done := 0
	for _, task := range tasks {
		if task.Done {
			done++
		}
	}
	assert.Equal(t, int(calls.Load()), done)
	assert.LessOrEqual(t, done, len(tasks))
}

func TestNewPool_MinimumOneWorker(t *testing.T) {
	assert.Equal(t, 1, NewPool[int, int]("x", 0, nil).Workers())
}

func TestBatch(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1}, {2}}, Batch([]int{1, 2}, 0))
	assert.Nil(t, Batch([]int{}, 3))
}
