package stub

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// RecordedRequest captures one request received by the stub platform.
type RecordedRequest struct {
	Method     string
	Path       string
	Query      map[string]string
	Headers    http.Header
	Body       map[string]any
	RawBody    []byte
	ReceivedAt time.Time
}

// Recorder keeps every request the stub receives, keyed by operation label,
// so suites can assert on what the clients actually sent.
type Recorder struct {
	mu   sync.RWMutex
	byOp map[string][]*RecordedRequest
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{byOp: make(map[string][]*RecordedRequest)}
}

// middleware records the request under the given operation label before the
// handler runs. The body is re-buffered so handlers can still read it.
func (r *Recorder) middleware(op string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		rec := &RecordedRequest{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Query:      make(map[string]string),
			Headers:    c.Request.Header.Clone(),
			RawBody:    raw,
			ReceivedAt: time.Now(),
		}
		for k, vs := range c.Request.URL.Query() {
			if len(vs) > 0 {
				rec.Query[k] = vs[0]
			}
		}
		if len(raw) > 0 {
			var body map[string]any
			if err := json.Unmarshal(raw, &body); err == nil {
				rec.Body = body
			}
		}

		r.mu.Lock()
		r.byOp[op] = append(r.byOp[op], rec)
		r.mu.Unlock()

		c.Next()
	}
}

// CallCount returns how many times the operation was called.
func (r *Recorder) CallCount(op string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOp[op])
}

// Requests returns all recorded requests for the operation, oldest first.
func (r *Recorder) Requests(op string) []*RecordedRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RecordedRequest, len(r.byOp[op]))
	copy(out, r.byOp[op])
	return out
}

// LastRequest returns the most recent request for the operation, or nil.
func (r *Recorder) LastRequest(op string) *RecordedRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reqs := r.byOp[op]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

// Reset drops all recorded requests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOp = make(map[string][]*RecordedRequest)
}

// AssertCalled fails the test unless the operation was called exactly n
// times, and returns the recorded requests.
func (r *Recorder) AssertCalled(t *testing.T, op string, n int) []*RecordedRequest {
	t.Helper()
	reqs := r.Requests(op)
	if len(reqs) != n {
		t.Fatalf("operation %s called %d times, want %d", op, len(reqs), n)
	}
	return reqs
}
