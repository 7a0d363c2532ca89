package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/internal/market/core"
	"github.com/zappabad/papertrade/internal/market/view"
	"github.com/zappabad/papertrade/internal/session"
)

// Store persists session snapshots. ok reports whether a document was found
// and parsed; absence is not an error.
type Store interface {
	Load(ctx context.Context) (session.State, bool, error)
	Save(ctx context.Context, st session.State) error
}

// command types
type cmdType int

const (
	cmdSubmit cmdType = iota
	cmdStart
	cmdStop
)

type command struct {
	typ      cmdType
	side     market.Side
	code     market.Code
	qty      int64
	interval time.Duration
	respCh   chan<- response
}

type response struct {
	fill market.Fill
	sim  market.SimState
	err  error
}

// Service owns the engine core and view, providing serialized access. Every
// mutation — scheduler ticks included — flows through one processor
// goroutine, so the core never needs locking. After each mutation the
// service republishes the display snapshot and fires a best-effort save;
// a failing store degrades the session to in-memory, it never blocks it.
type Service struct {
	cfg   Config
	log   *logrus.Entry
	core  *core.Core
	store Store
	mview *view.MarketView

	sim    market.SimState
	ticker *time.Ticker
	tickC  <-chan time.Time

	cmdCh          chan command
	externalEvents chan core.Event
	droppedEvents  atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds a Service from a (sanitized) session state. store may be nil
// for a purely in-memory session.
func New(st session.State, store Store, cfg Config) *Service {
	if cfg.Volatility <= 0 {
		cfg.Volatility = DefaultConfig().Volatility
	}
	if cfg.FillTapeSize <= 0 {
		cfg.FillTapeSize = DefaultConfig().FillTapeSize
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = DefaultConfig().CommandBuffer
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = DefaultConfig().SaveTimeout
	}

	sim := st.Sim
	if sim.TickMs < session.MinTickMs {
		sim.TickMs = session.DefaultTickMs
	}

	s := &Service{
		cfg:            cfg,
		log:            logrus.WithField("component", "market"),
		core:           core.NewCore(st, core.NewPriceModel(cfg.Volatility, cfg.Seed), cfg.FillTapeSize),
		store:          store,
		mview:          view.NewMarketView(),
		sim:            sim,
		cmdCh:          make(chan command, cfg.CommandBuffer),
		externalEvents: make(chan core.Event, cfg.EventBuffer),
		closed:         make(chan struct{}),
	}

	s.publish()

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Service) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.closed:
			if s.ticker != nil {
				s.ticker.Stop()
			}
			return
		case <-s.tickC:
			s.handleTick()
		case cmd := <-s.cmdCh:
			s.processCommand(cmd)
		}
	}
}

func (s *Service) handleTick() {
	events := s.core.Tick(time.Now())
	if len(events) == 0 {
		// Halted: nothing moved, nothing to publish or persist.
		return
	}

	s.publish()
	s.persist()

	for _, ev := range events {
		if halt, ok := ev.(core.MarketHaltedEvent); ok {
			s.log.WithFields(logrus.Fields{
				"code":  halt.Code,
				"price": halt.Price.String(),
				"band":  halt.TriggerPct.String(),
			}).Warn("circuit breaker tripped, market halted")
		}
		s.emit(ev)
	}
}

func (s *Service) processCommand(cmd command) {
	var resp response

	switch cmd.typ {
	case cmdSubmit:
		fill, events, err := s.core.Submit(cmd.side, cmd.code, cmd.qty, time.Now())
		resp = response{fill: fill, err: err}
		if err == nil {
			s.publish()
			s.persist()
			for _, ev := range events {
				s.emit(ev)
			}
			s.log.WithFields(logrus.Fields{
				"side":  fill.Side.String(),
				"code":  fill.Code,
				"qty":   fill.Qty,
				"price": fill.Price.String(),
			}).Info("order filled")
		}

	case cmdStart:
		interval := cmd.interval
		if interval <= 0 {
			interval = DefaultTickInterval
		}
		if interval < MinTickInterval {
			interval = MinTickInterval
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.ticker = time.NewTicker(interval)
		s.tickC = s.ticker.C
		s.sim = market.SimState{Running: true, TickMs: int(interval / time.Millisecond)}
		s.publish()
		s.persist()
		s.log.WithField("tickMs", s.sim.TickMs).Info("simulation started")
		resp = response{sim: s.sim}

	case cmdStop:
		if s.ticker != nil {
			s.ticker.Stop()
			s.ticker = nil
			s.tickC = nil
		}
		s.sim.Running = false
		s.publish()
		s.persist()
		s.log.Info("simulation stopped")
		resp = response{sim: s.sim}
	}

	if cmd.respCh != nil {
		cmd.respCh <- resp
	}
}

// sessionState assembles the full persistence document: the core's export
// plus the scheduler state the service owns.
func (s *Service) sessionState() session.State {
	st := s.core.SessionState()
	st.Sim = s.sim
	return st
}

func (s *Service) publish() {
	s.mview.Set(view.Build(s.sessionState()))
}

func (s *Service) persist() {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
	defer cancel()
	if err := s.store.Save(ctx, s.sessionState()); err != nil {
		s.log.WithError(err).Warn("state save failed, continuing in memory")
	}
}

func (s *Service) emit(ev core.Event) {
	if s.cfg.DropEvents {
		select {
		case s.externalEvents <- ev:
		default:
			s.droppedEvents.Add(1)
		}
		return
	}
	select {
	case s.externalEvents <- ev:
	case <-s.closed:
	}
}

func (s *Service) roundTrip(ctx context.Context, cmd command, respCh chan response) (response, error) {
	select {
	case <-s.closed:
		return response{}, context.Canceled
	case <-ctx.Done():
		return response{}, ctx.Err()
	case s.cmdCh <- cmd:
	}

	select {
	case <-s.closed:
		return response{}, context.Canceled
	case <-ctx.Done():
		return response{}, ctx.Err()
	case resp := <-respCh:
		return resp, nil
	}
}

// Submit executes a market-price order against the current tape.
func (s *Service) Submit(ctx context.Context, side market.Side, code market.Code, qty int64) (market.Fill, error) {
	respCh := make(chan response, 1)
	resp, err := s.roundTrip(ctx, command{typ: cmdSubmit, side: side, code: code, qty: qty, respCh: respCh}, respCh)
	if err != nil {
		return market.Fill{}, err
	}
	return resp.fill, resp.err
}

// Start begins periodic ticking at the given interval (clamped to
// MinTickInterval; zero means the default interval).
func (s *Service) Start(ctx context.Context, interval time.Duration) (market.SimState, error) {
	respCh := make(chan response, 1)
	resp, err := s.roundTrip(ctx, command{typ: cmdStart, interval: interval, respCh: respCh}, respCh)
	if err != nil {
		return market.SimState{}, err
	}
	return resp.sim, nil
}

// Stop halts periodic ticking. The session state is untouched.
func (s *Service) Stop(ctx context.Context) (market.SimState, error) {
	respCh := make(chan response, 1)
	resp, err := s.roundTrip(ctx, command{typ: cmdStop, respCh: respCh}, respCh)
	if err != nil {
		return market.SimState{}, err
	}
	return resp.sim, nil
}

// Snapshot returns the latest display snapshot.
func (s *Service) Snapshot() view.Snapshot {
	return s.mview.Snapshot()
}

// Events returns the external events channel for subscribers.
func (s *Service) Events() <-chan core.Event {
	return s.externalEvents
}

// DroppedEvents returns the count of dropped external events.
func (s *Service) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

// Close shuts down the service and waits for the processor to finish.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.wg.Wait()
		close(s.externalEvents)
	})
}
