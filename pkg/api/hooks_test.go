package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/K1ngNothing/dungeon-generation/pkg/observability"
)

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	routes   []string
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
	h.statuses = append(h.statuses, status)
}

func useHTTPHooks(t *testing.T, h observability.HTTPHooks) {
	t.Helper()
	observability.SetHTTPHooks(h)
	t.Cleanup(observability.Reset)
}
