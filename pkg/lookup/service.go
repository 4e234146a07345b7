package lookup

import (
	"context"
	"sync"

	"ethlookup/pkg/snapshot"

	"github.com/charmbracelet/log"
)

// Service runs one lookup at a time and broadcasts its events to subscribers.
// Starting a new lookup cancels the previous one; its late events are dropped.
type Service struct {
	dataSource DataSource
	logger     *log.Logger

	subscribers []Subscriber
	generation  uint64
	inputs      snapshot.Inputs
	cancel      context.CancelFunc
	done        chan struct{}
	mu          sync.RWMutex
}

func NewService(ds DataSource, logger *log.Logger) *Service {
	if logger == nil {
		logger = discardLogger()
	}
	return &Service{dataSource: ds, logger: logger}
}

// SetDataSource allows overriding the data source (useful for testing).
func (s *Service) SetDataSource(ds DataSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataSource = ds
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (s *Service) Subscribe() Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(Subscriber, 100)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (s *Service) Unsubscribe(ch Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (s *Service) notify(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		select {
		case sub <- event:
		default:
			s.logger.Warn("subscriber is full, dropping event", "type", event.Type, "generation", event.Generation)
		}
	}
}

// record applies a current-generation event and reports whether it was current.
func (s *Service) record(event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.Generation != s.generation {
		return false
	}
	event.Apply(&s.inputs)
	return true
}

// Start validates address and launches a new lookup for it. An invalid
// address returns an ErrValidation error and issues no fetch.
func (s *Service) Start(ctx context.Context, address string) (uint64, error) {
	address, err := Validate(address)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.inputs = snapshot.NewInputs(address)
	lookupCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	ds := s.dataSource
	s.mu.Unlock()

	s.logger.Info("lookup started", "address", address, "generation", gen)
	go func() {
		defer close(done)
		Fetch(lookupCtx, ds, address, gen, s.logger, func(ev Event) {
			if !s.record(ev) {
				s.logger.Debug("dropping stale event", "type", ev.Type, "generation", ev.Generation)
				return
			}
			s.notify(ev)
		})
	}()
	return gen, nil
}

// Stop cancels the running lookup, if any. Results it delivers afterwards
// belong to a retired generation and are neither recorded nor broadcast.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.generation++
	}
}

// Wait blocks until the current lookup has settled or ctx is done.
func (s *Service) Wait(ctx context.Context) {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *Service) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Inputs returns a copy of the current lookup's results.
func (s *Service) Inputs() snapshot.Inputs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputs
}
