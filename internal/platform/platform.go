// Package platform abstracts the runtime capabilities the cache depends
// on: wall-clock time, persistent blob storage, cross-context broadcast,
// connectivity and storage-quota estimation. The core TTL, eviction and
// deduplication logic is written against these interfaces only, so it runs
// unchanged on top of real storage or the in-memory fakes used in tests.
package platform

import (
	"context"

	"github.com/benbjohnson/clock"
)

// Clock is the injected time source. The mock implementation from
// benbjohnson/clock drives deterministic TTL and debounce tests.
type Clock = clock.Clock

// Store persists opaque blobs under string keys.
type Store interface {
	// Load returns the blob stored under key, reporting presence.
	Load(key string) ([]byte, bool, error)
	// Save stores the blob under key, replacing any previous value.
	Save(key string, data []byte) error
	// Delete removes the blob under key. Deleting a missing key is a no-op.
	Delete(key string) error
	// Watch emits the key of every externally observed change until ctx is
	// done. Implementations without external writers may return a channel
	// that never fires.
	Watch(ctx context.Context) (<-chan string, error)
	// Close releases underlying resources.
	Close() error
}

// Broadcast is the low-latency push channel between same-origin contexts.
type Broadcast interface {
	Publish(topic string, data []byte) error
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
}

// Connectivity exposes the online/offline signal.
type Connectivity interface {
	Online() bool
	Watch(ctx context.Context) <-chan bool
}

// QuotaEstimator reports current storage usage and quota in bytes.
type QuotaEstimator interface {
	Estimate() (usage, quota int64, err error)
}

// Runtime bundles the capabilities handed to the cache constructor.
type Runtime struct {
	Clock        Clock
	Store        Store
	Broadcast    Broadcast
	Connectivity Connectivity
	Quota        QuotaEstimator
}

// Defaults fills missing capabilities with in-memory implementations.
func (r Runtime) Defaults() Runtime {
	if r.Clock == nil {
		r.Clock = clock.New()
	}
	if r.Store == nil {
		r.Store = NewMemoryStore()
	}
	if r.Broadcast == nil {
		r.Broadcast = NewMemoryBroadcast()
	}
	if r.Connectivity == nil {
		r.Connectivity = NewMemoryConnectivity(true)
	}
	return r
}
