package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSetNX struct {
	keys map[string]time.Duration
	err  error
}

func (f *fakeSetNX) SetNX(_ context.Context, key string, _ interface{}, exp time.Duration) *goredis.BoolCmd {
	if f.err != nil {
		return goredis.NewBoolResult(false, f.err)
	}
	if _, ok := f.keys[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.keys[key] = exp
	return goredis.NewBoolResult(true, nil)
}

func TestAllow_UnaVezPorVentana(t *testing.T) {
	fake := &fakeSetNX{keys: map[string]time.Duration{}}
	th := newAlertThrottle(fake, 15*time.Minute)

	ok, err := th.Allow(context.Background(), "low-stock:t:i")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = th.Allow(context.Background(), "low-stock:t:i")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 15*time.Minute, fake.keys["prescrimed:alert:low-stock:t:i"])
}

func TestAllow_ErrorDeRedis(t *testing.T) {
	th := newAlertThrottle(&fakeSetNX{err: errors.New("down")}, 0)
	_, err := th.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.Equal(t, time.Hour, th.ttl)
}
