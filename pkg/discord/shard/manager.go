package shard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/atomic"

	"github.com/small-frappuccino/tildebot/pkg/discord/session"
	"github.com/small-frappuccino/tildebot/pkg/errutil"
	"github.com/small-frappuccino/tildebot/pkg/log"
)

// ErrShutdown is returned by Run when the manager was shut down before it started.
var ErrShutdown = errors.New("shard manager already shut down")

var (
	newSession   = session.NewDiscordSession
	openSession  = func(s *discordgo.Session) error { return s.Open() }
	closeSession = func(s *discordgo.Session) error { return s.Close() }
	gatewayBot   = func(s *discordgo.Session) (*discordgo.GatewayBotResponse, error) { return s.GatewayBot() }
)

// Manager owns one gateway session per shard.
//
// Run and ShutdownAll may be called from different goroutines; ShutdownAll is
// idempotent and unblocks Run.
type Manager struct {
	mu       sync.Mutex
	sessions []*discordgo.Session
	opened   []bool

	running  atomic.Int32
	shutdown atomic.Bool
	once     sync.Once
	done     chan struct{}
}

// New builds (without connecting) the shard sessions. count <= 0 asks Discord for
// the recommended shard count. register is invoked once per session to attach handlers.
func New(token string, intents discordgo.Intent, count int, register func(*discordgo.Session)) (*Manager, error) {
	first, err := newSession(token, intents, 0, 1)
	if err != nil {
		return nil, err
	}

	if count <= 0 {
		var resp *discordgo.GatewayBotResponse
		if err := errutil.HandleDiscordError("gateway_bot", func() error {
			var gwErr error
			resp, gwErr = gatewayBot(first)
			return gwErr
		}); err != nil {
			return nil, fmt.Errorf("fetch recommended shard count: %w", err)
		}
		count = 1
		if resp != nil && resp.Shards > 0 {
			count = resp.Shards
		}
	}
	first.ShardCount = count

	sessions := make([]*discordgo.Session, 0, count)
	sessions = append(sessions, first)
	for id := 1; id < count; id++ {
		s, err := newSession(token, intents, id, count)
		if err != nil {
			return nil, fmt.Errorf("shard %d: %w", id, err)
		}
		sessions = append(sessions, s)
	}

	if register != nil {
		for _, s := range sessions {
			register(s)
		}
	}

	return &Manager{
		sessions: sessions,
		opened:   make([]bool, len(sessions)),
		done:     make(chan struct{}),
	}, nil
}

func (m *Manager) Shards() int { return len(m.sessions) }

// Running reports how many shards are currently connected.
func (m *Manager) Running() int { return int(m.running.Load()) }

// Sessions returns the shard sessions in shard order.
func (m *Manager) Sessions() []*discordgo.Session {
	out := make([]*discordgo.Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// Run connects every shard and blocks until ShutdownAll is called or ctx is done.
// If a shard fails to connect, shards opened so far are closed and the error is returned.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.openAll(); err != nil {
		return err
	}
	log.DiscordLogger().Info("All shards connected", "shards", len(m.sessions))

	select {
	case <-ctx.Done():
		m.ShutdownAll()
	case <-m.done:
	}
	return nil
}

func (m *Manager) openAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if m.shutdown.Load() {
			m.closeOpenedLocked()
			return ErrShutdown
		}
		log.DiscordLogger().Info("Connecting shard", "shard", id, "shards", len(m.sessions))
		if err := errutil.HandleDiscordError("open_shard", func() error { return openSession(s) }); err != nil {
			m.closeOpenedLocked()
			return fmt.Errorf("open shard %d: %w", id, err)
		}
		m.opened[id] = true
		m.running.Inc()
	}
	return nil
}

// ShutdownAll disconnects every open shard. Calls after the first are no-ops.
func (m *Manager) ShutdownAll() {
	m.once.Do(func() {
		m.shutdown.Store(true)

		m.mu.Lock()
		m.closeOpenedLocked()
		m.mu.Unlock()

		close(m.done)
		log.DiscordLogger().Info("All shards shut down")
	})
}

func (m *Manager) closeOpenedLocked() {
	for id, s := range m.sessions {
		if !m.opened[id] {
			continue
		}
		if err := closeSession(s); err != nil {
			log.DiscordLogger().Warn("Failed to close shard", "shard", id, "error", err)
		}
		m.opened[id] = false
		m.running.Dec()
	}
}
