package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/callrelay/internal/core"
	"github.com/dkeye/callrelay/internal/domain"
	"github.com/dkeye/callrelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Identity domain.Identity
	Conn     core.SignalConnection
	Cancel   context.CancelFunc
	JoinedAt time.Time
}

// Target is one connection an event should be written to.
type Target struct {
	ConnID domain.ConnectionID
	Conn   core.SignalConnection
}

// Presence is a read-only view of an identity's connections.
type Presence struct {
	Identity     domain.Identity `json:"identity"`
	Online       bool            `json:"online"`
	Connections  int             `json:"connections"`
	LastJoinedAt *time.Time      `json:"lastJoinedAt,omitempty"`
}

// Registry maps identities to their live signaling connections.
// Connections of one identity are kept in registration order; the last one is the latest.
type Registry struct {
	mu         sync.RWMutex
	conns      map[domain.ConnectionID]*connEntry
	byIdentity map[domain.Identity][]domain.ConnectionID
	delivery   DeliveryPolicy
	now        func() time.Time
}

func NewRegistry(delivery DeliveryPolicy) *Registry {
	if delivery == "" {
		delivery = DeliverBroadcast
	}
	return &Registry{
		conns:      make(map[domain.ConnectionID]*connEntry),
		byIdentity: make(map[domain.Identity][]domain.ConnectionID),
		delivery:   delivery,
		now:        time.Now,
	}
}

// Register adds cid to id's connection set. A connection that joins again
// under another identity is moved.
func (r *Registry) Register(id domain.Identity, cid domain.ConnectionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.conns[cid]; ok {
		r.detach(prev.Identity, cid)
	}
	r.conns[cid] = &connEntry{Identity: id, Conn: conn, Cancel: cancel, JoinedAt: r.now()}
	r.byIdentity[id] = append(r.byIdentity[id], cid)
	r.observe()
	log.Info().Str("module", "app.registry").Str("identity", string(id)).Str("conn_id", string(cid)).
		Int("connections", len(r.byIdentity[id])).Msg("registered connection")
}

// Unregister removes cid and reports the identity it belonged to.
func (r *Registry) Unregister(cid domain.ConnectionID) (domain.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return "", false
	}
	delete(r.conns, cid)
	r.detach(e.Identity, cid)
	r.observe()
	log.Info().Str("module", "app.registry").Str("identity", string(e.Identity)).Str("conn_id", string(cid)).
		Bool("online", len(r.byIdentity[e.Identity]) > 0).Msg("unregistered connection")
	return e.Identity, true
}

func (r *Registry) detach(id domain.Identity, cid domain.ConnectionID) {
	list := r.byIdentity[id]
	for i, c := range list {
		if c == cid {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.byIdentity, id)
		return
	}
	r.byIdentity[id] = list
}

func (r *Registry) observe() {
	metrics.ConnectionsActive.Set(float64(len(r.conns)))
	metrics.IdentitiesOnline.Set(float64(len(r.byIdentity)))
}

func (r *Registry) IsOnline(id domain.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIdentity[id]) > 0
}

// Holds reports whether cid is still registered under id.
func (r *Registry) Holds(id domain.Identity, cid domain.ConnectionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	return ok && e.Identity == id
}

func (r *Registry) IdentityOf(cid domain.ConnectionID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[cid]; ok {
		return e.Identity, true
	}
	return "", false
}

// Targets returns the connections an event for id goes to under the delivery policy.
func (r *Registry) Targets(id domain.Identity) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byIdentity[id]
	if len(list) == 0 {
		return nil
	}
	if r.delivery == DeliverLatest {
		list = list[len(list)-1:]
	}
	out := make([]Target, 0, len(list))
	for _, cid := range list {
		out = append(out, Target{ConnID: cid, Conn: r.conns[cid].Conn})
	}
	return out
}

func (r *Registry) Presence(id domain.Identity) Presence {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := Presence{Identity: id}
	list := r.byIdentity[id]
	if len(list) == 0 {
		return p
	}
	p.Online = true
	p.Connections = len(list)
	joined := r.conns[list[len(list)-1]].JoinedAt
	p.LastJoinedAt = &joined
	return p
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Cancel stops the pumps of cid. The adapter unregisters it on the way out.
func (r *Registry) Cancel(cid domain.ConnectionID) bool {
	r.mu.RLock()
	e, ok := r.conns[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn_id", string(cid)).Msg("canceled connection")
	return true
}
