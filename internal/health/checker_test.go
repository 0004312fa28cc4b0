package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	present bool
	err     error
}

func (f fakeDevice) Present() (bool, error) { return f.present, f.err }
func (f fakeDevice) String() string { return "/dev/ttyUSB0" }

type fakeRedis struct {
	err     error
	stats   redis.PoolStats
	holder  string
	lockErr error
}

func (f *fakeRedis) HealthCheck(context.Context) error { return f.err }
func (f *fakeRedis) Stats() *redis.PoolStats { return &f.stats }
func (f *fakeRedis) LockHolder(context.Context) (string, error) {
	return f.holder, f.lockErr
}

func TestSerialChecker(t *testing.T) {
	tests := []struct {
		name   string
		device fakeDevice
		want   Status
	}{
		{name: "设备存在", device: fakeDevice{present: true}, want: StatusHealthy},
		{name: "设备不存在", device: fakeDevice{}, want: StatusUnhealthy},
		{name: "探测失败", device: fakeDevice{err: errors.New("permission denied")}, want: StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewSerialChecker(tt.device).Check(context.Background())
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, "/dev/ttyUSB0", res.Details["device"])
		})
	}
}

func TestRedisChecker(t *testing.T) {
	pool := redis.PoolStats{TotalConns: 4, IdleConns: 3}
	tests := []struct {
		name   string
		client *fakeRedis
		want   Status
		lock   any
	}{
		{name: "锁空闲", client: &fakeRedis{stats: pool}, want: StatusHealthy, lock: "free"},
		{name: "锁被持有", client: &fakeRedis{stats: pool, holder: "tok-1"}, want: StatusHealthy, lock: "held"},
		{name: "读取锁失败", client: &fakeRedis{stats: pool, lockErr: errors.New("READONLY")}, want: StatusDegraded},
		{name: "Ping失败", client: &fakeRedis{err: errors.New("connection refused")}, want: StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewRedisChecker(tt.client).Check(context.Background())
			assert.Equal(t, tt.want, res.Status)
			if tt.lock != nil {
				assert.Equal(t, tt.lock, res.Details["serial_lock"])
			}
		})
	}
}

func TestRegisterHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		checkers []Checker
		wantCode int
	}{
		{name: "健康", checkers: []Checker{NewSerialChecker(fakeDevice{present: true})}, wantCode: http.StatusOK},
		{name: "降级", checkers: []Checker{
			NewSerialChecker(fakeDevice{present: true}),
			NewRedisChecker(&fakeRedis{err: errors.New("down")}),
		}, wantCode: http.StatusOK},
		{name: "不健康", checkers: []Checker{NewSerialChecker(fakeDevice{})}, wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			RegisterHTTPRoutes(r, NewAggregator(tt.checkers...))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantCode, rec.Code)

			var report HealthReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Len(t, report.Checks, len(tt.checkers))
		})
	}
}
