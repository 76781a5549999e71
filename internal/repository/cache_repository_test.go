package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

type cacheMetricsRecorder struct {
	hits   int
	misses int
}

func (r *cacheMetricsRecorder) RecordCacheOperation(hit bool) {
	if hit {
		r.hits++
		return
	}
	r.misses++
}

func TestCacheRepositoryNilClientMissesAndRecords(t *testing.T) {
	recorder := &cacheMetricsRecorder{}
	repo := NewCacheRepository(nil, zap.NewNop()).WithMetrics(recorder)

	var dest map[string]int
	err := repo.Get(context.Background(), "dashboard:summary", &dest)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCacheMiss))

	assert.Equal(t, 1, recorder.misses)
	assert.Equal(t, 0, recorder.hits)
}

func TestCacheRepositoryNilClientPassThroughWrites(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())

	require.NoError(t, repo.Set(context.Background(), "dashboard:summary", map[string]int{"total": 1}, 0))
	require.NoError(t, repo.DeleteByPattern(context.Background(), "dashboard:*"))
	require.NoError(t, repo.Close())
}

func TestCacheRepositoryWithoutRecorderStillMisses(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())

	var dest struct{}
	err := repo.Get(context.Background(), "schedule:all", &dest)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCacheMiss))
}
