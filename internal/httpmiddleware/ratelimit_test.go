package httpmiddleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestSimpleTokenBucketRefills(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 60)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(ctx, "a"); !ok {
			t.Fatalf("request %d rejected", i)
		}
	}
	if ok, _ := l.Allow(ctx, "a"); ok {
		t.Fatal("third request allowed")
	}
	if ok, _ := l.Allow(ctx, "b"); !ok {
		t.Fatal("other key should have its own bucket")
	}

	now = now.Add(2 * time.Second)
	if ok, _ := l.Allow(ctx, "a"); !ok {
		t.Fatal("expected refill after two seconds")
	}
}

type stubLimiter struct {
	allow bool
	err   error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.allow, s.err }

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		limiter Limiter
		want    int
	}{
		{"allowed", stubLimiter{allow: true}, http.StatusOK},
		{"rejected", stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"limiter down fails open", stubLimiter{err: errors.New("redis: connection refused")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RateLimit(tt.limiter))
			r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRedisWindowCountsPerMinute(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.April, 1, 9, 0, 10, 0, time.UTC)
	counts := map[string]int64{}
	l := NewRedisWindow(nil, 2)
	l.now = func() time.Time { return now }
	l.incr = func(_ context.Context, key string) (int64, error) {
		counts[key]++
		return counts[key], nil
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, err := l.Allow(ctx, "10.0.0.1"); err != nil || !ok {
			t.Fatalf("request %d: ok = %v, err = %v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "10.0.0.1"); ok {
		t.Fatal("third request in the same minute allowed")
	}
	if ok, _ := l.Allow(ctx, "10.0.0.2"); !ok {
		t.Fatal("other client should have its own counter")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatal("expected a fresh window after one minute")
	}

	want := "tutorattend:ratelimit:10.0.0.1:28532701"
	if got := l.windowKey("10.0.0.1"); got != want {
		t.Fatalf("windowKey = %q, want %q", got, want)
	}
}

func TestRateLimitWithUnreachableRedisLetsRequestsThrough(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := gin.New()
	r.Use(RateLimit(NewRedisWindow(client, 1)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
}
