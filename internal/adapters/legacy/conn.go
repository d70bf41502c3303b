// Package legacy owns the process-wide connection to the legacy document
// store and the typed collection accessors registered against it. Only this
// package opens or closes the connection; callers go through the Manager.
package legacy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"legacy_migrator/internal/domain"
)

const (
	serverSelectionTimeout = 10 * time.Second
	socketTimeout          = 45 * time.Second
	pingTimeout            = 3 * time.Second
	maxPoolSize            = 10
)

type state int

const (
	stateDisconnected state = iota
	stateConnecting
	stateConnected
	stateDisconnecting
)

func (s state) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateDisconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// Manager caches a single client handle. The collection registry lives on
// the Manager and is invalidated together with the handle, so a stale
// accessor bound to a closed connection cannot survive a disconnect.
type Manager struct {
	mu         sync.Mutex
	st         state
	client     *mongo.Client
	db         *mongo.Database
	host       string
	dbName     string
	defaultURI string
	gen        uint64
	colls      map[string]*mongo.Collection
	log        zerolog.Logger
}

func NewManager(defaultURI, dbName string, logger zerolog.Logger) *Manager {
	return &Manager{defaultURI: defaultURI, dbName: dbName, log: logger}
}

// Connect is idempotent: a healthy cached handle is returned unchanged. A
// stale handle is closed first (close errors swallowed) before a new
// connection is opened and pinged ready.
func (m *Manager) Connect(ctx context.Context, uri string) (domain.ConnStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uri == "" {
		uri = m.defaultURI
	}

	if m.client != nil && m.st == stateConnected {
		if err := m.pingLocked(ctx); err == nil {
			return m.statusLocked(), nil
		}
		m.log.Warn().Str("host", m.host).Msg("cached legacy connection is stale, reopening")
		m.closeLocked(ctx)
	}

	m.st = stateConnecting
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetSocketTimeout(socketTimeout).
		SetMaxPoolSize(maxPoolSize).
		SetPoolMonitor(m.poolMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		m.st = stateDisconnected
		return m.statusLocked(), fmt.Errorf("legacy connect: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, serverSelectionTimeout)
	err = client.Ping(pctx, readpref.Primary())
	cancel()
	if err != nil {
		_ = client.Disconnect(ctx)
		m.st = stateDisconnected
		return m.statusLocked(), fmt.Errorf("legacy store not ready: %w", err)
	}

	m.client = client
	m.db = client.Database(m.dbName)
	if hosts := opts.Hosts; len(hosts) > 0 {
		m.host = hosts[0]
	}
	m.gen++
	m.colls = make(map[string]*mongo.Collection, len(collections))
	m.st = stateConnected
	m.log.Info().Str("host", m.host).Str("db", m.dbName).Uint64("gen", m.gen).
		Msg("legacy store connected")
	return m.statusLocked(), nil
}

// Disconnect closes the handle if present, logging failures without
// raising, and unconditionally clears the cached handle and registry.
func (m *Manager) Disconnect(ctx context.Context) (domain.ConnStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return m.statusLocked(), nil
	}
	m.st = stateDisconnecting
	m.closeLocked(ctx)
	return m.statusLocked(), nil
}

// Status never fails: with no handle it reports a definite disconnected
// shape.
func (m *Manager) Status() domain.ConnStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Collection returns the cached typed accessor for a logical model name,
// registering it on first use. Requires a live connection.
func (m *Manager) Collection(model string) (*mongo.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st != stateConnected || m.db == nil {
		return nil, domain.ErrNotConnected
	}
	if c, ok := m.colls[model]; ok {
		return c, nil
	}
	name, ok := collections[model]
	if !ok {
		return nil, fmt.Errorf("legacy: unknown model %q", model)
	}
	c := m.db.Collection(name)
	m.colls[model] = c
	return c, nil
}

func (m *Manager) pingLocked(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return m.client.Ping(pctx, readpref.Primary())
}

func (m *Manager) closeLocked(ctx context.Context) {
	if err := m.client.Disconnect(ctx); err != nil {
		m.log.Warn().Err(err).Msg("legacy disconnect failed")
	}
	m.client = nil
	m.db = nil
	m.colls = nil
	m.st = stateDisconnected
	m.log.Info().Msg("legacy store disconnected")
}

func (m *Manager) statusLocked() domain.ConnStatus {
	st := domain.ConnStatus{State: m.st.String(), Connected: m.st == stateConnected}
	if st.Connected {
		st.Host = m.host
		st.Name = m.dbName
	}
	return st
}

// poolMonitor registers observers for logging only; they never fail.
func (m *Manager) poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			switch e.Type {
			case event.ConnectionCreated, event.ConnectionClosed, event.PoolCleared:
				m.log.Debug().Str("event", e.Type).Str("address", e.Address).
					Msg("legacy pool event")
			}
		},
	}
}
