package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/profile"
)

// Loader reads persisted conversations back.
type Loader interface {
	LoadTurns(ctx context.Context, threadID string) ([]Turn, error)
	LoadActions(ctx context.Context, threadID string) ([]Action, error)
}

// ManagerOptions configure the session registry.
type ManagerOptions struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	Session         Options

	// Profile returns the profile a new conversation starts from. Each
	// conversation receives its own copy.
	Profile  func() *profile.Profile
	Loader   Loader
	Recorder Recorder
}

// Manager keeps live conversations keyed by thread id. Conversations that
// expire from memory are rebuilt from the loader on next access.
type Manager struct {
	cache *cache.Cache
	opts  ManagerOptions
	log   *zap.Logger

	mu sync.Mutex
}

func NewManager(opts ManagerOptions, log *zap.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 10 * time.Minute
	}
	if opts.Profile == nil {
		opts.Profile = func() *profile.Profile { return &profile.Profile{} }
	}
	return &Manager{
		cache: cache.New(opts.TTL, opts.CleanupInterval),
		opts:  opts,
		log:   logger.WithFields(log),
	}
}

// Open returns the conversation for threadID, creating or rehydrating it as
// needed. resumed reports whether earlier turns were restored from storage.
func (m *Manager) Open(ctx context.Context, threadID string) (c *Context, resumed bool, err error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, false, fmt.Errorf("thread id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.cache.Get(threadID); ok {
		c = cached.(*Context)
		m.cache.Set(threadID, c, cache.DefaultExpiration)
		return c, false, nil
	}

	c = New(threadID, m.opts.Profile().Clone(), m.opts.Session, m.opts.Recorder)
	log := logger.WithThread(m.log, threadID)

	if m.opts.Loader != nil {
		turns, err := m.opts.Loader.LoadTurns(ctx, threadID)
		if err != nil {
			return nil, false, fmt.Errorf("load turns: %w", err)
		}
		actions, err := m.opts.Loader.LoadActions(ctx, threadID)
		if err != nil {
			return nil, false, fmt.Errorf("load actions: %w", err)
		}
		if err := c.Restore(turns, actions); err != nil {
			return nil, false, err
		}
		resumed = len(turns) > 0 || len(actions) > 0
		if resumed {
			log.Info("conversation restored", zap.Int("turns", len(turns)), zap.Int("actions", len(actions)))
		}
	}

	m.cache.Set(threadID, c, cache.DefaultExpiration)
	log.Debug("conversation opened", zap.Bool("resumed", resumed))
	return c, resumed, nil
}

// Close forgets the in-memory conversation. Persisted history is kept.
func (m *Manager) Close(threadID string) {
	m.cache.Delete(threadID)
}

// Len reports the number of live conversations.
func (m *Manager) Len() int {
	return m.cache.ItemCount()
}
