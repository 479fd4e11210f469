package provider

import (
	"encoding/json"

	"github.com/fintide/go-hybrid-cache/internal/shared/bytes"
)

const syncTopic = "hybridcache.provider"

// envelope is the cross-context update message.
type envelope struct {
	Origin string `json:"origin"`
	State  *State `json:"state"`
}

// publish pushes an update to other contexts over the broadcast channel.
// Broadcast failures are swallowed: sync is best effort, reads always
// re-validate against TTL anyway.
func (p *Provider) publish(st *State) {
	if p.broadcast == nil {
		return
	}
	data, err := json.Marshal(envelope{Origin: p.contextID, State: st})
	if err != nil {
		return
	}
	if err = p.broadcast.Publish(syncTopic, data); err != nil {
		p.logger.Warn("provider broadcast failed", "key", st.Key, "err", err)
		return
	}
	p.counters.broadcastsSent.Add(1)
}

// runSync starts the two inbound sync channels: the low-latency broadcast
// subscription and the storage change-watch fallback. Both apply
// last-write-wins by timestamp and never replace a newer local entry with
// an older remote one.
func (p *Provider) runSync() {
	if p.broadcast != nil {
		ch, err := p.broadcast.Subscribe(p.ctx, syncTopic)
		if err != nil {
			p.logger.Warn("provider broadcast subscribe failed", "err", err)
		} else {
			go p.consumeBroadcast(ch)
		}
	}

	if p.persist != nil {
		ch, err := p.persist.Watch(p.ctx)
		if err != nil {
			p.logger.Warn("provider storage watch failed", "err", err)
		} else {
			go p.consumeStorageEvents(ch)
		}
	}
}

func (p *Provider) consumeBroadcast(ch <-chan []byte) {
	for {
		select {
		case <-p.ctx.Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal(data, &env); err != nil || env.State == nil {
				continue
			}
			if env.Origin == p.contextID {
				continue
			}
			p.apply(env.State)
		}
	}
}

func (p *Provider) consumeStorageEvents(ch <-chan string) {
	for {
		select {
		case <-p.ctx.Done():
			return
		case key, ok := <-ch:
			if !ok {
				return
			}
			if key != blobKey {
				continue
			}
			// Another context flushed its blob; merge it under the same
			// last-write-wins rule the broadcast channel uses.
			p.mergePersisted()
		}
	}
}

// apply installs a remote state unless a newer local write exists.
func (p *Provider) apply(remote *State) {
	p.mu.Lock()
	local, ok := p.states[remote.Key]
	if ok && local.Timestamp.After(remote.Timestamp) {
		p.mu.Unlock()
		p.counters.broadcastsStale.Add(1)
		return
	}
	if ok && local.Timestamp.Equal(remote.Timestamp) && bytes.IsBytesAreEquals(local.Value, remote.Value) {
		p.mu.Unlock()
		return
	}
	p.states[remote.Key] = remote.clone()
	p.mu.Unlock()
	p.counters.broadcastsApplied.Add(1)
}
