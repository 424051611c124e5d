package monitoring

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics accumulates request counters for the /metrics endpoint. One
// instance is created at startup and shared via the middleware; there is no
// package-level state.
type Metrics struct {
	mu             sync.RWMutex
	requestCount   int64
	errorCount     int64
	activeRequests int64
	statusCodes    map[string]int64
	endpoints      map[string]int64
	totalDuration  time.Duration
	startTime      time.Time
	lastRequest    time.Time

	// extras are named snapshot sections contributed by other components,
	// e.g. database pool statistics.
	extras map[string]func() map[string]interface{}
}

func NewMetrics() *Metrics {
	return &Metrics{
		statusCodes: make(map[string]int64),
		endpoints:   make(map[string]int64),
		startTime:   time.Now(),
		extras:      make(map[string]func() map[string]interface{}),
	}
}

// RegisterExtra attaches a named stats provider included in every snapshot.
func (m *Metrics) RegisterExtra(name string, provider func() map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extras[name] = provider
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.activeRequests++
		m.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		endpoint := c.Request.Method + " " + c.FullPath()

		m.mu.Lock()
		m.activeRequests--
		m.requestCount++
		m.totalDuration += duration
		m.statusCodes[status]++
		m.endpoints[endpoint]++
		m.lastRequest = time.Now()
		if c.Writer.Status() >= http.StatusInternalServerError {
			m.errorCount++
		}
		m.mu.Unlock()
	}
}

func (m *Metrics) snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avgDuration int64
	if m.requestCount > 0 {
		avgDuration = (m.totalDuration / time.Duration(m.requestCount)).Milliseconds()
	}

	statusCodes := make(map[string]int64, len(m.statusCodes))
	for k, v := range m.statusCodes {
		statusCodes[k] = v
	}
	endpoints := make(map[string]int64, len(m.endpoints))
	for k, v := range m.endpoints {
		endpoints[k] = v
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := map[string]interface{}{
		"request_count":           m.requestCount,
		"error_count":             m.errorCount,
		"active_requests":         m.activeRequests,
		"avg_request_duration_ms": avgDuration,
		"status_codes":            statusCodes,
		"endpoint_calls":          endpoints,
		"uptime_seconds":          int64(time.Since(m.startTime).Seconds()),
		"last_request":            m.lastRequest.UTC().Format(time.RFC3339),
		"goroutines":              runtime.NumGoroutine(),
		"heap_alloc_bytes":        memStats.HeapAlloc,
	}

	for name, provider := range m.extras {
		snap[name] = provider()
	}
	return snap
}

// Handler serves the metrics snapshot as JSON.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.snapshot())
	}
}
