// Package service implements business logic on top of ports.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	cfotel "github.com/Strob0t/ssecast/internal/adapter/otel"
	"github.com/Strob0t/ssecast/internal/config"
	"github.com/Strob0t/ssecast/internal/domain/client"
	"github.com/Strob0t/ssecast/internal/port/broadcast"
	"github.com/Strob0t/ssecast/internal/stream"
)

// entry is one registered client. Entries are compared by pointer, so two
// entries sharing an id stay independent.
type entry struct {
	id   string
	sink broadcast.Sink
}

// BroadcasterService is the client registry. It fans messages out to every
// registered client and evicts clients whose keepalive fails.
//
// The client list is guarded by mu, which is held only to copy, append or
// replace the slice. Sends always happen outside the lock.
type BroadcasterService struct {
	mu      sync.Mutex
	clients []*entry

	cfg     config.Broadcast
	clock   clockwork.Clock
	metrics *cfotel.Metrics
}

// NewBroadcasterService creates an empty registry. A nil clock means the
// real clock.
func NewBroadcasterService(cfg config.Broadcast, clock clockwork.Clock) *BroadcasterService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BroadcasterService{cfg: cfg, clock: clock}
}

// SetMetrics attaches OpenTelemetry instruments. Optional.
func (s *BroadcasterService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Subscribe registers a new client backed by a fresh stream. An empty
// requestedID gets a generated id. The stream already holds the connected
// acknowledgement when Subscribe returns.
//
// A non-nil conns receives the stream before it is registered, so an
// unsubscribe that closes conns by id cannot miss a client that is still
// joining. On error the stream is closed and removed from conns again.
func (s *BroadcasterService) Subscribe(ctx context.Context, requestedID string, conns *stream.Set) (string, *stream.Stream, error) {
	id := client.AssignID(requestedID)
	st := stream.New(s.cfg.StreamBuffer)
	if conns != nil {
		conns.Add(id, st)
	}
	if err := s.Register(ctx, id, st); err != nil {
		st.Close(err)
		if conns != nil {
			conns.Remove(id, st)
		}
		return "", nil, err
	}
	return id, st, nil
}

// Register sends the connected acknowledgement to sink and appends it to the
// registry under id. Ids are not checked for uniqueness.
func (s *BroadcasterService) Register(ctx context.Context, id string, sink broadcast.Sink) error {
	if err := sink.Send(ctx, stream.Connected()); err != nil {
		return fmt.Errorf("send connected to %s: %w", id, err)
	}

	s.mu.Lock()
	s.clients = append(s.clients, &entry{id: id, sink: sink})
	n := len(s.clients)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Clients.Add(ctx, 1)
	}
	slog.Info("client subscribed", "client_id", id, "clients", n)
	return nil
}

// Unsubscribe removes every entry registered under id and returns how many
// were removed. An unknown id removes nothing. Connections are not closed.
func (s *BroadcasterService) Unsubscribe(id string) int {
	s.mu.Lock()
	kept := make([]*entry, 0, len(s.clients))
	for _, c := range s.clients {
		if c.id != id {
			kept = append(kept, c)
		}
	}
	removed := len(s.clients) - len(kept)
	s.clients = kept
	s.mu.Unlock()

	if removed > 0 {
		if s.metrics != nil {
			s.metrics.Clients.Add(context.Background(), int64(-removed))
		}
		slog.Info("client unsubscribed", "client_id", id, "removed", removed)
	}
	return removed
}

// Broadcast sends "<id>: <message>" to every client registered at call time.
// Deliveries run concurrently; a failed delivery is dropped and left for the
// next sweep. Broadcast returns once every attempt has settled.
func (s *BroadcasterService) Broadcast(ctx context.Context, message string) broadcast.Receipt {
	receipt := broadcast.Receipt{ID: uuid.New().String()}

	ctx, span := cfotel.StartBroadcastSpan(ctx, receipt.ID)
	defer span.End()

	clients := s.snapshot()
	receipt.Recipients = len(clients)
	span.SetAttributes(attribute.Int("broadcast.recipients", receipt.Recipients))

	failed := s.fanOut(ctx, clients, func(c *entry) stream.Frame {
		return stream.Message(c.id, message)
	})

	failures := 0
	for i, err := range failed {
		if err != nil {
			failures++
			slog.Debug("broadcast delivery failed", "broadcast_id", receipt.ID, "client_id", clients[i].id, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.Broadcasts.Add(ctx, 1)
		s.metrics.Deliveries.Add(ctx, int64(len(clients)-failures), metric.WithAttributes(attribute.String("result", "ok")))
		s.metrics.Deliveries.Add(ctx, int64(failures), metric.WithAttributes(attribute.String("result", "failed")))
	}
	slog.Debug("broadcast settled", "broadcast_id", receipt.ID, "recipients", len(clients), "failed", failures)
	return receipt
}

// Sweep sends a keepalive to every client and removes the ones whose send
// failed. It returns the number of evicted clients. Clients registered or
// removed while the sweep runs are left as they are.
func (s *BroadcasterService) Sweep(ctx context.Context) int {
	start := s.clock.Now()
	ctx, span := cfotel.StartSweepSpan(ctx)
	defer span.End()

	clients := s.snapshot()
	failed := s.fanOut(ctx, clients, func(c *entry) stream.Frame {
		return stream.Keepalive(c.id)
	})

	dead := make(map[*entry]struct{})
	for i, err := range failed {
		if err != nil {
			dead[clients[i]] = struct{}{}
			slog.Info("evicting client", "client_id", clients[i].id, "error", err)
		}
	}

	evicted := 0
	s.mu.Lock()
	if len(dead) > 0 {
		kept := make([]*entry, 0, len(s.clients))
		for _, c := range s.clients {
			if _, ok := dead[c]; ok {
				evicted++
				continue
			}
			kept = append(kept, c)
		}
		s.clients = kept
	}
	active := len(s.clients)
	s.mu.Unlock()

	span.SetAttributes(
		attribute.Int("sweep.checked", len(clients)),
		attribute.Int("sweep.evicted", evicted),
	)
	if s.metrics != nil {
		if evicted > 0 {
			s.metrics.Clients.Add(ctx, int64(-evicted))
			s.metrics.Evictions.Add(ctx, int64(evicted))
		}
		s.metrics.SweepDuration.Record(ctx, s.clock.Since(start).Seconds())
	}
	slog.Debug("sweep complete", "checked", len(clients), "evicted", evicted, "clients", active)
	return evicted
}

// Run sweeps every SweepInterval until ctx is cancelled.
func (s *BroadcasterService) Run(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("liveness sweep started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("liveness sweep stopped")
			return
		case <-ticker.Chan():
			s.Sweep(ctx)
		}
	}
}

// Count returns the number of registered clients.
func (s *BroadcasterService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// IDs returns the ids of all registered clients in registration order.
// Duplicates appear once per entry.
func (s *BroadcasterService) IDs() []string {
	clients := s.snapshot()
	ids := make([]string, len(clients))
	for i, c := range clients {
		ids[i] = c.id
	}
	return ids
}

func (s *BroadcasterService) snapshot() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entry, len(s.clients))
	copy(out, s.clients)
	return out
}

// fanOut sends one frame per client concurrently and returns the per-client
// send errors, index-aligned with clients. It never fails as a whole. Each
// send is bounded by SendTimeout, so one stalled client cannot hold the
// whole fan-out.
func (s *BroadcasterService) fanOut(ctx context.Context, clients []*entry, frame func(*entry) stream.Frame) []error {
	errs := make([]error, len(clients))
	var g errgroup.Group
	if s.cfg.MaxParallelSends > 0 {
		g.SetLimit(s.cfg.MaxParallelSends)
	}
	for i, c := range clients {
		g.Go(func() error {
			sendCtx := ctx
			if s.cfg.SendTimeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(ctx, s.cfg.SendTimeout)
				defer cancel()
			}
			errs[i] = c.sink.Send(sendCtx, frame(c))
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
