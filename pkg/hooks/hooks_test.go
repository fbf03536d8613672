package hooks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnRejectsUnknownEvent(t *testing.T) {
	m := New()
	_, err := m.On(Event("not_a_real_hook"), func(ctx context.Context, p Payload) (Payload, error) {
		return p, nil
	})
	assert.Error(t, err)
}

func TestEmitSequentialPreservesOrderAndThreadsPayload(t *testing.T) {
	m := New()
	var order []int

	_, err := m.On(PreCheckpoint, func(ctx context.Context, p Payload) (Payload, error) {
		order = append(order, 1)
		return Payload{"stage_one": true}, nil
	})
	require.NoError(t, err)

	_, err = m.On(PreCheckpoint, func(ctx context.Context, p Payload) (Payload, error) {
		order = append(order, 2)
		_, sawStageOne := p["stage_one"]
		assert.True(t, sawStageOne, "second handler must see first handler's enrichment")
		return p, nil
	})
	require.NoError(t, err)

	results, err := m.EmitSequential(context.Background(), PreCheckpoint, Payload{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)
	assert.Len(t, results, 2)
}

func TestEmitSequentialContinuesAfterHandlerError(t *testing.T) {
	m := New()
	var secondRan bool

	_, _ = m.On(OnRollback, func(ctx context.Context, p Payload) (Payload, error) {
		return p, errors.New("boom")
	})
	_, _ = m.On(OnRollback, func(ctx context.Context, p Payload) (Payload, error) {
		secondRan = true
		return p, nil
	})

	results, err := m.EmitSequential(context.Background(), OnRollback, Payload{})
	require.NoError(t, err)
	assert.True(t, secondRan)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
}

func TestEmitParallelCollectsPerHandlerResultsWithoutAborting(t *testing.T) {
	m := New()
	var ran int32

	_, _ = m.On(PostCommit, func(ctx context.Context, p Payload) (Payload, error) {
		atomic.AddInt32(&ran, 1)
		return p, errors.New("handler one failed")
	})
	_, _ = m.On(PostCommit, func(ctx context.Context, p Payload) (Payload, error) {
		atomic.AddInt32(&ran, 1)
		return p, nil
	})

	results, err := m.EmitParallel(context.Background(), PostCommit, Payload{"x": 1})
	require.NoError(t, err, "emitParallel must never propagate handler errors")
	assert.EqualValues(t, 2, ran)
	assert.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
}

func TestOffRemovesHandler(t *testing.T) {
	m := New()
	var called bool
	sub, err := m.On(StateChange, func(ctx context.Context, p Payload) (Payload, error) {
		called = true
		return p, nil
	})
	require.NoError(t, err)

	m.Off(sub)
	_, err = m.EmitSequential(context.Background(), StateChange, Payload{})
	require.NoError(t, err)
	assert.False(t, called)
}
