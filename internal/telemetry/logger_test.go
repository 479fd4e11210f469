package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/fintide/go-hybrid-cache/internal/config"
)

// countingHandler counts emitted records; telemetry output must never be
// able to fail, so content assertions stay minimal.
type countingHandler struct {
	count atomic.Int64
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *countingHandler) Handle(context.Context, slog.Record) error {
	h.count.Add(1)
	return nil
}
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func TestLogsFlushCadence(t *testing.T) {
	mock := clock.NewMock()
	handler := &countingHandler{}
	cfg := &config.TelemetryCfg{IsLogsEnabled: true, LogsInterval: 10 * time.Second}

	logs := NewLogs(context.Background(), cfg, slog.New(handler), mock, nil, nil, nil)
	logs.Run()
	t.Cleanup(logs.Stop)

	// advance in steps so the ticker is guaranteed to exist before the
	// window that should fire it
	require.Eventually(t, func() bool {
		mock.Add(10 * time.Second)
		return handler.count.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogsDisabledNeverFlushes(t *testing.T) {
	mock := clock.NewMock()
	handler := &countingHandler{}

	logs := NewLogs(context.Background(), nil, slog.New(handler), mock, nil, nil, nil)
	logs.Run()
	t.Cleanup(logs.Stop)

	mock.Add(time.Minute)
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, handler.count.Load())
}

func TestDeltaSnapshot(t *testing.T) {
	prev := snapshot{storeHits: 10, httpMisses: 4, providerSets: 7}
	cur := snapshot{storeHits: 25, httpMisses: 4, providerSets: 9}

	d := deltaSnapshot(prev, cur)
	require.Equal(t, uint64(15), d.storeHits)
	require.Zero(t, d.httpMisses)
	require.Equal(t, uint64(2), d.providerSets)

	// a counter reset reports the new cumulative value as the delta
	reset := deltaSnapshot(snapshot{storeHits: 100}, snapshot{storeHits: 3})
	require.Equal(t, uint64(3), reset.storeHits)
}
