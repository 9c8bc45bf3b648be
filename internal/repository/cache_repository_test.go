package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
)

// recordingHook answers commands in-process and remembers what was sent.
type recordingHook struct {
	sent    [][]interface{}
	counter int64
	getVal  string
	failTx  error
}

func (h *recordingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *recordingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.sent = append(h.sent, cmd.Args())
		switch c := cmd.(type) {
		case *redis.StringCmd:
			c.SetVal(h.getVal)
		case *redis.IntCmd:
			c.SetVal(1)
		}
		return nil
	}
}

func (h *recordingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if h.failTx != nil {
			return h.failTx
		}
		for _, cmd := range cmds {
			h.sent = append(h.sent, cmd.Args())
			if c, ok := cmd.(*redis.IntCmd); ok {
				c.SetVal(h.counter)
			}
		}
		return nil
	}
}

func newHookedCache(hook *recordingHook) *CacheRepository {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	return NewCacheRepository(client, nil)
}

func commandNames(sent [][]interface{}) []string {
	names := make([]string, len(sent))
	for i, args := range sent {
		names[i], _ = args[0].(string)
	}
	return names
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.False(t, repo.Enabled())
	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "plans:1:boys", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "plans:1:boys", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "plans:1:boys"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "plans:*"))

	count, err := repo.Increment(ctx, "login:127.0.0.1", time.Minute)
	assert.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryIncrementSetsExpiryInTransaction(t *testing.T) {
	hook := &recordingHook{counter: 3}
	repo := newHookedCache(hook)

	count, err := repo.Increment(context.Background(), "login:127.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.Equal(t, []string{"multi", "set", "incr", "exec"}, commandNames(hook.sent))
	set := hook.sent[1]
	assert.Equal(t, "login:127.0.0.1", set[1])
	assert.Contains(t, set, "nx")
	assert.Contains(t, set, "ex")
	assert.Equal(t, []interface{}{"incr", "login:127.0.0.1"}, hook.sent[2])
}

func TestCacheRepositoryIncrementError(t *testing.T) {
	repo := newHookedCache(&recordingHook{failTx: errors.New("connection refused")})

	_, err := repo.Increment(context.Background(), "login:127.0.0.1", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login:127.0.0.1")
}

func TestCacheRepositoryGetDropsUnreadableValue(t *testing.T) {
	hook := &recordingHook{getVal: "{not json"}
	repo := newHookedCache(hook)

	var dest map[string]string
	err := repo.Get(context.Background(), "plans:5:boys", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Equal(t, []string{"get", "del"}, commandNames(hook.sent))
}
