package game

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zappabad/papertrade/internal/market/service"
	"github.com/zappabad/papertrade/internal/session"
	"github.com/zappabad/papertrade/internal/store"
)

// Game owns the session subsystems and manages their lifecycle.
type Game struct {
	Market *service.Service

	cfg   Config
	store *store.Store
	log   *logrus.Entry
	mu    sync.Mutex
}

// New creates a Game: it opens the store, restores the previous session (or
// starts the default one) and brings up the market service. Persistence
// trouble is never fatal; the game degrades to an in-memory session and says
// so in the log.
func New(cfg Config) *Game {
	g := &Game{cfg: cfg, log: logrus.WithField("component", "game")}

	st, restored := g.openSession()
	st.Sanitize()
	if restored {
		g.log.WithField("db", cfg.DBPath).Info("session restored")
	} else {
		g.log.Info("starting fresh session")
	}

	var sink service.Store
	if g.store != nil {
		sink = g.store
	}
	g.Market = service.New(st, sink, cfg.marketConfig())

	return g
}

// openSession opens the store and loads the stored session document.
// restored reports whether a document was found; otherwise the default
// session (with the configured tick interval) is returned.
func (g *Game) openSession() (st session.State, restored bool) {
	st = session.DefaultState()
	if g.cfg.TickMs >= session.MinTickMs {
		st.Sim.TickMs = g.cfg.TickMs
	}

	if g.cfg.DBPath == "" {
		return st, false
	}

	db, err := store.Open(g.cfg.DBPath)
	if err != nil {
		g.log.WithError(err).Warn("store unavailable, running in memory")
		return st, false
	}
	g.store = db

	loaded, ok, err := db.Load(context.Background())
	if err != nil {
		g.log.WithError(err).Warn("session load failed, starting fresh")
		return st, false
	}
	if !ok {
		return st, false
	}
	return loaded, true
}

// Close shuts down the subsystems in reverse dependency order.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Market != nil {
		g.Market.Close()
	}
	if g.store != nil {
		g.store.Close()
	}
}
