// campusvoice/visitors/redis_test.go
package visitors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"campusvoice/config"
)

func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("CV_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CV_TEST_REDIS_ADDR not set; skipping Redis tests")
	}
	ctx := context.Background()
	cfg := config.RedisConfig{Addr: addr, Key: fmt.Sprintf("campusvoice:test:%d", time.Now().UnixNano())}
	c, err := NewRedisCounter(ctx, cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewRedisCounter failed: %v", err)
	}
	t.Cleanup(func() {
		c.client.Del(context.Background(), cfg.Key)
		c.Close()
	})

	steps := []struct {
		device string
		want   int64
	}{
		{"user_a", 1},
		{"user_a", 1},
		{"user_b", 2},
		{"user_a", 2},
	}
	for _, s := range steps {
		got, err := c.RecordVisitor(ctx, s.device)
		if err != nil {
			t.Fatalf("RecordVisitor failed: %v", err)
		}
		if got != s.want {
			t.Errorf("RecordVisitor(%s) = %d, want %d", s.device, got, s.want)
		}
	}
}

func TestNewRedisCounterUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCounter(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err == nil {
		t.Error("expected an error connecting to a closed port")
	}
}
