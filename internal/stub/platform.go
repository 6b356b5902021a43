// Package stub runs an in-memory rendition of the platform: the task
// service and the request router, sharing one store and one token issuer.
// Hermetic suites point their clients at it; it also serves as a local
// development target through the CLI.
package stub

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dagknows/dkqa/internal/auth"
	"github.com/dagknows/dkqa/internal/observability"
	"github.com/dagknows/dkqa/model"
)

// Platform wires the stub services together.
type Platform struct {
	Store    *Store
	Issuer   *auth.Issuer
	Recorder *Recorder
	Metrics  *observability.Metrics

	alerts *alertEngine
	logger *zap.Logger

	credMu      sync.RWMutex
	credentials map[string]string

	// jobLatency is how long a created job stays running before the stub
	// marks it succeeded.
	jobLatency time.Duration

	taskService *httptest.Server
	reqRouter   *httptest.Server
}

// Option configures a Platform.
type Option func(*Platform)

// WithLogger sets the platform logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Platform) { p.logger = logger }
}

// WithJobLatency sets how long jobs run before succeeding.
func WithJobLatency(d time.Duration) Option {
	return func(p *Platform) { p.jobLatency = d }
}

// WithUser registers a sign-in credential and its org user.
func WithUser(password string, u model.User) Option {
	return func(p *Platform) {
		stored := p.Store.AddUser(u)
		p.credentials[stored.Email] = password
	}
}

// WithSettings replaces the default tenant settings.
func WithSettings(update model.FlagUpdate) Option {
	return func(p *Platform) {
		if _, err := p.Store.SetFlags(update); err != nil {
			panic("stub: invalid initial settings: " + err.Error())
		}
	}
}

// NewPlatform builds a stub platform and starts both services on loopback
// listeners. Call Close when done.
func NewPlatform(opts ...Option) (*Platform, error) {
	issuer, err := auth.NewIssuer()
	if err != nil {
		return nil, err
	}

	p := &Platform{
		Store:       NewStore(),
		Issuer:      issuer,
		Recorder:    NewRecorder(),
		Metrics:     observability.InitMetrics(),
		logger:      zap.NewNop(),
		credentials: make(map[string]string),
		jobLatency:  25 * time.Millisecond,
	}
	p.alerts = newAlertEngine(p.Store)
	for _, opt := range opts {
		opt(p)
	}

	gin.SetMode(gin.TestMode)

	ts := gin.New()
	ts.Use(p.requestLog("taskservice"), p.requestMetrics("taskservice"), gin.Recovery())
	p.registerTaskService(ts)
	p.taskService = httptest.NewServer(ts)

	rr := gin.New()
	rr.Use(p.requestLog("reqrouter"), p.requestMetrics("reqrouter"), gin.Recovery())
	rr.GET("/metrics", gin.WrapH(p.Metrics.Handler()))
	p.registerReqRouter(rr)
	p.reqRouter = httptest.NewServer(rr)

	return p, nil
}

// TaskServiceURL returns the base URL of the stub task service.
func (p *Platform) TaskServiceURL() string { return p.taskService.URL }

// ReqRouterURL returns the base URL of the stub request router.
func (p *Platform) ReqRouterURL() string { return p.reqRouter.URL }

// Close shuts both services down.
func (p *Platform) Close() {
	p.taskService.Close()
	p.reqRouter.Close()
}

// finishLater moves a job to succeeded after the configured latency.
func (p *Platform) finishLater(jobID string) {
	latency := p.jobLatency
	go func() {
		time.Sleep(latency)
		if err := p.Store.FinishJob(jobID, model.JobSucceeded, "ok"); err != nil {
			p.logger.Warn("failed to finish job", zap.String("job_id", jobID), zap.Error(err))
		}
	}()
}

func (p *Platform) requestLog(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		p.logger.Debug("stub request",
			zap.String("service", service),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (p *Platform) requestMetrics(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		p.Metrics.HTTPRequestsTotal.
			WithLabelValues(service, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		p.Metrics.HTTPRequestDuration.
			WithLabelValues(service, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// rebind converts an already-decoded JSON map into a typed struct.
func rebind(raw map[string]any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}
