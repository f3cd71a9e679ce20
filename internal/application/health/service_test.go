package health

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestCollectHealth_WithNilRedis(t *testing.T) {
	ctx := context.Background()
	result := CollectHealth(ctx, nil, nil)
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disabled", result.Dependencies["redis"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
	assert.NotEmpty(t, result.Runtime.GoVersion)
}

func TestCollectHealth_DatabaseOnly(t *testing.T) {
	result := CollectHealth(context.Background(), nil, fakePinger{})
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["database"].Status)

	result = CollectHealth(context.Background(), nil, fakePinger{err: errors.New("closed")})
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "error", result.Dependencies["database"].Status)
}

func TestCollectHealth_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	// No keys set: Redis connected, traffic zeros
	result := CollectHealth(ctx, rdb, fakePinger{})
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
	assert.Equal(t, "100", result.Traffic.SuccessRate)

	require.NoError(t, rdb.Set(ctx, "health:global:req_total", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:req_errors", "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_time_total", "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_count", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:start_time", "1000000", 0).Err())

	result2 := CollectHealth(ctx, rdb, fakePinger{})
	assert.Equal(t, 10, result2.Traffic.TotalRequests)
	assert.Equal(t, 2, result2.Traffic.FailedCount)
	assert.Equal(t, 8, result2.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result2.Traffic.SuccessRate)
	assert.Equal(t, "15.05", result2.Traffic.AvgResponseTime)
	assert.Greater(t, result2.Runtime.UptimeSeconds, int64(0))
}

func TestCollectHealth_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	result := CollectHealth(context.Background(), rdb, fakePinger{})
	assert.Equal(t, "error", result.Dependencies["redis"].Status)
	assert.Equal(t, "issue", result.Status)
}

func TestRenderDashboard(t *testing.T) {
	result := CollectHealth(context.Background(), nil, fakePinger{})
	result.Traffic.LastRequest = map[string]interface{}{"method": "GET", "path": "/search?q=<civic>"}

	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, result))
	html := buf.String()
	assert.Contains(t, html, `<span class="ok">ok</span>`)
	assert.Contains(t, html, "GET /search?q=&lt;civic&gt;")
	assert.Less(t, strings.Index(html, "database"), strings.Index(html, "redis"))
	assert.Contains(t, html, "disabled")
}
