package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/sitewatch/internal/core/config"
	"github.com/vietddude/sitewatch/internal/core/domain"
	"github.com/vietddude/sitewatch/internal/core/worker"
	"github.com/vietddude/sitewatch/internal/health"
	"github.com/vietddude/sitewatch/internal/infra/api"
	"github.com/vietddude/sitewatch/internal/infra/session"
	"github.com/vietddude/sitewatch/internal/infra/storage"
	"github.com/vietddude/sitewatch/internal/infra/storage/memory"
	"github.com/vietddude/sitewatch/internal/infra/storage/postgres"
	"github.com/vietddude/sitewatch/internal/metrics"
)

// ErrSessionEnded is returned by Run when the session was invalidated and
// the agent can no longer poll. The operator has to log in again.
var ErrSessionEnded = errors.New("control: session ended")

// Config holds the agent configuration.
type Config struct {
	Port     int
	API      api.Config
	Session  config.SessionConfig
	Monitor  config.MonitorConfig
	Database postgres.Config
}

// Monitor is the headless agent: it polls the backend for alerts through the
// API client, archives them, and exposes health and metrics.
type Monitor struct {
	cfg          Config
	client       *api.Client
	store        session.Store
	repo         storage.AlertRepository
	invalidator  *session.Invalidator
	healthServer *health.Server
	db           *postgres.DB
	redisStore   *session.RedisStore
	log          *slog.Logger

	mu        sync.RWMutex
	backendOK bool
	sites     map[string]health.SiteState

	endOnce sync.Once
	ended   chan struct{}
}

// NewMonitor creates a Monitor with all dependencies initialized.
func NewMonitor(cfg Config) (*Monitor, error) {
	log := slog.Default().With("component", "monitor")

	m := &Monitor{
		cfg:       cfg,
		log:       log,
		backendOK: true,
		sites:     make(map[string]health.SiteState),
		ended:     make(chan struct{}),
	}

	// 1. Session storage
	switch cfg.Session.Backend {
	case "", "file":
		m.store = session.NewFileStore(cfg.Session.Path)
	case "redis":
		rs, err := session.NewRedisStore(cfg.Session.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init session store: %w", err)
		}
		m.store = rs
		m.redisStore = rs
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	// 2. Alert archive
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(cfg.Monitor.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, err
		}
		m.db = db
		m.repo = postgres.NewAlertRepo(db)
	} else {
		m.repo = memory.NewMemoryStorage()
	}

	// 3. Error pipeline and client
	router := api.NewRouter(log)
	m.client = api.New(cfg.API, m.store, router, log)
	m.invalidator = session.NewInvalidator(m.store, m.endSession, log)
	router.Register(m.handlers())

	// 4. Health/metrics server
	m.healthServer = health.NewServer(m.checkHealth, cfg.Port)

	return m, nil
}

// Client exposes the wired API client (used by CLI subcommands and tests).
func (m *Monitor) Client() *api.Client {
	return m.client
}

// handlers is the real handler set registered at bootstrap, replacing the
// router's inert defaults. An unauthorized outcome that survived recovery
// tears the session down and ends the agent run.
func (m *Monitor) handlers() api.Handlers {
	return api.Handlers{
		OnUnauthorized: func(ctx context.Context, e *api.Error) {
			m.invalidator.Invalidate(ctx)
		},
		OnForbidden: func(ctx context.Context, e *api.Error) {
			m.log.Warn("access forbidden", "message", e.Message)
		},
		OnValidation: func(ctx context.Context, e *api.Error) {
			m.log.Warn("request rejected by backend", "message", e.Message, "code", e.ErrorCode)
		},
		OnServer: func(ctx context.Context, e *api.Error) {
			m.log.Error("backend error", "status", e.StatusCode, "message", e.Message)
		},
		OnNetwork: func(ctx context.Context, e *api.Error) {
			m.setBackendOK(false)
			m.log.Warn("backend unreachable", "code", e.ErrorCode, "message", e.Message)
		},
	}
}

func (m *Monitor) endSession() {
	m.endOnce.Do(func() {
		close(m.ended)
	})
}

func (m *Monitor) setBackendOK(ok bool) {
	m.mu.Lock()
	m.backendOK = ok
	m.mu.Unlock()
}

// Run starts the health server, the poll loop and the retention pruner, and
// blocks until ctx is cancelled or the session ends.
func (m *Monitor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := m.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return m.healthServer.Stop(shutdownCtx)
	})

	g.Go(func() error {
		return m.pollLoop(gctx)
	})

	if m.cfg.Monitor.RetentionPeriod > 0 {
		pruner := worker.NewPruner(m.cfg.Monitor.Sites, m.cfg.Monitor.RetentionPeriod, m.repo, m.log)
		g.Go(func() error {
			pruner.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-m.ended:
			return ErrSessionEnded
		}
	})

	m.log.Info("monitor started", "port", m.cfg.Port, "poll_interval", m.cfg.Monitor.PollInterval)
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases held connections.
func (m *Monitor) Close() error {
	var firstErr error
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			firstErr = err
		}
	}
	if m.redisStore != nil {
		if err := m.redisStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Monitor) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Monitor.PollInterval)
	defer ticker.Stop()

	// Initial poll
	m.pollAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.ended:
			return nil
		case <-ticker.C:
			m.pollAll(ctx)
		}
	}
}

func (m *Monitor) pollAll(ctx context.Context) {
	siteIDs := m.cfg.Monitor.Sites
	if len(siteIDs) == 0 {
		sites, err := m.client.Sites(ctx)
		if err != nil {
			m.recordPollError("", err)
			return
		}
		for _, s := range sites {
			if s.Status == domain.SiteStatusActive {
				siteIDs = append(siteIDs, s.ID)
			}
		}
	}

	for _, siteID := range siteIDs {
		if ctx.Err() != nil {
			return
		}
		m.pollSite(ctx, siteID)
	}
}

func (m *Monitor) pollSite(ctx context.Context, siteID string) {
	since, err := m.repo.LatestDetectedAt(ctx, siteID)
	if err != nil {
		m.log.Error("failed to read archive cursor", "site", siteID, "error", err)
		return
	}

	alerts, err := m.client.Alerts(ctx, api.AlertFilter{
		SiteID: siteID,
		Since:  since,
		Limit:  m.cfg.Monitor.PageLimit,
	})
	if err != nil {
		m.recordPollError(siteID, err)
		m.updateSiteState(siteID, false, 0)
		return
	}

	if len(alerts) > 0 {
		batch := make([]*domain.Alert, 0, len(alerts))
		for i := range alerts {
			batch = append(batch, &alerts[i])
		}
		if err := m.repo.SaveBatch(ctx, batch); err != nil {
			m.log.Error("failed to archive alerts", "site", siteID, "error", err)
			m.updateSiteState(siteID, false, 0)
			return
		}
		metrics.AlertsArchived.WithLabelValues(siteID).Add(float64(len(alerts)))
	}

	m.setBackendOK(true)
	m.updateSiteState(siteID, true, int64(len(alerts)))
}

func (m *Monitor) recordPollError(siteID string, err error) {
	kind := "unknown"
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		kind = apiErr.Kind().String()
		if apiErr.Kind() == api.KindNetwork {
			m.setBackendOK(false)
		}
	}
	site := siteID
	if site == "" {
		site = "_all"
	}
	metrics.PollFailures.WithLabelValues(site, kind).Inc()
	m.log.Warn("poll failed", "site", site, "kind", kind, "error", err)
}

func (m *Monitor) updateSiteState(siteID string, ok bool, stored int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.sites[siteID]
	m.sites[siteID] = health.SiteState{
		LastPollAt:   time.Now(),
		LastPollOK:   ok,
		AlertsStored: prev.AlertsStored + stored,
	}
}

func (m *Monitor) checkHealth(ctx context.Context) health.Report {
	m.mu.RLock()
	backendOK := m.backendOK
	sites := make(map[string]health.SiteState, len(m.sites))
	for k, v := range m.sites {
		sites[k] = v
	}
	m.mu.RUnlock()

	sessionActive := false
	if _, err := m.store.Load(ctx); err == nil {
		sessionActive = true
	}

	status := health.StatusHealthy
	backend := "ok"
	if !backendOK {
		status = health.StatusCritical
		backend = "unreachable"
	} else {
		for _, s := range sites {
			if !s.LastPollOK {
				status = health.StatusDegraded
				break
			}
		}
	}
	if !sessionActive && status == health.StatusHealthy {
		status = health.StatusDegraded
	}

	return health.Report{
		Status:        status,
		Backend:       backend,
		SessionActive: sessionActive,
		Sites:         sites,
	}
}
