package platform

import (
	"context"
	"sync"
)

// MemoryStore is the in-memory Store used by tests and as the default
// capability when no durable storage is wired.
type MemoryStore struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	watchers []chan string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

func (s *MemoryStore) Save(key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	s.blobs[key] = cp
	watchers := make([]chan string, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- key:
		default: // watcher is lagging, change-notify is best effort
		}
	}
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}()

	return ch, nil
}

func (s *MemoryStore) Close() error { return nil }

// MemoryBroadcast is an in-process pub/sub bus. Every context sharing the
// same bus instance observes each published message, including the sender;
// subscribers filter their own writes by timestamp.
type MemoryBroadcast struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

func NewMemoryBroadcast() *MemoryBroadcast {
	return &MemoryBroadcast{subs: make(map[string][]chan []byte)}
}

func (b *MemoryBroadcast) Publish(topic string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	b.mu.RLock()
	subs := make([]chan []byte, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- cp:
		default: // slow subscriber, drop rather than block the writer
		}
	}
	return nil
}

func (b *MemoryBroadcast) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		subs := b.subs[topic]
		for i, sub := range subs {
			if sub == ch {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}()

	return ch, nil
}

// MemoryConnectivity is a togglable connectivity signal.
type MemoryConnectivity struct {
	mu       sync.RWMutex
	online   bool
	watchers []chan bool
}

func NewMemoryConnectivity(online bool) *MemoryConnectivity {
	return &MemoryConnectivity{online: online}
}

func (c *MemoryConnectivity) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// SetOnline flips the connectivity state and notifies watchers.
func (c *MemoryConnectivity) SetOnline(online bool) {
	c.mu.Lock()
	c.online = online
	watchers := make([]chan bool, len(c.watchers))
	copy(watchers, c.watchers)
	c.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- online:
		default:
		}
	}
}

func (c *MemoryConnectivity) Watch(ctx context.Context) <-chan bool {
	ch := make(chan bool, 4)

	c.mu.Lock()
	c.watchers = append(c.watchers, ch)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		for i, w := range c.watchers {
			if w == ch {
				c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}()

	return ch
}

// FixedQuota is a QuotaEstimator returning a configured quota with usage
// reported by a callback, the manual fallback for platforms without a
// native estimation API.
type FixedQuota struct {
	Quota int64
	Usage func() int64
}

func (q FixedQuota) Estimate() (usage, quota int64, err error) {
	var u int64
	if q.Usage != nil {
		u = q.Usage()
	}
	return u, q.Quota, nil
}
