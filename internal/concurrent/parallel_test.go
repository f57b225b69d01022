package concurrent

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestParallelExecute_KeepsOrder(t *testing.T) {
	tasks := []Task[int]{
		func(ctx context.Context) (int, error) { time.Sleep(20 * time.Millisecond); return 1, nil },
		func(ctx context.Context) (int, error) { return 0, errors.New("second") },
		func(ctx context.Context) (int, error) { return 3, nil },
	}

	results := ParallelExecute(context.Background(), tasks)

	assert.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Value)
	assert.EqualError(t, results[1].Error, "second")
	assert.Equal(t, 3, results[2].Value)
	assert.Equal(t, 2, results[2].Index)
}

func TestJoin_WaitsForAll(t *testing.T) {
	var finished atomic.Int32
	slow := func(ctx context.Context) error {
		time.Sleep(30 * time.Millisecond)
		finished.Add(1)
		return nil
	}
	failing := func(ctx context.Context) error {
		finished.Add(1)
		return errors.New("failed fast")
	}

	err := Join(context.Background(), slow, failing, slow)

	assert.EqualError(t, err, "failed fast")
	assert.Equal(t, int32(3), finished.Load(), "join returns only after every task settled")
}

func TestJoin_FirstErrorByIndex(t *testing.T) {
	err := Join(context.Background(),
		func(ctx context.Context) error { time.Sleep(20 * time.Millisecond); return errors.New("first") },
		func(ctx context.Context) error { return errors.New("second") },
	)

	assert.EqualError(t, err, "first")
}
