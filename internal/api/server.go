// Package api wires together the HTTP routes of the inference gateway.
//
// The gateway serves two prediction surfaces: /v1/predict funnels single
// requests through the batcher so concurrent callers share backend calls,
// while /v1/predict/batch hands a caller-assembled batch straight to the
// execution backend. Health and readiness are split so orchestrators can
// distinguish a live-but-degraded gateway (no model loaded) from a dead one.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nexusml/nexus/internal/batcher"
	"github.com/nexusml/nexus/internal/config"
	"github.com/nexusml/nexus/internal/inference"
	"github.com/nexusml/nexus/internal/middleware"
	"github.com/nexusml/nexus/internal/telemetry"
)

// predictTimeout bounds how long a single request may wait for its batch.
const predictTimeout = 30 * time.Second

// Server is the inference gateway. A Server without a model serves health
// endpoints but answers 503 on prediction routes.
type Server struct {
	cfg     *config.Config
	batcher *batcher.Batcher
	started time.Time

	mu    sync.RWMutex
	model *inference.Model
}

// NewServer creates the gateway and its internal batcher. Call Start before
// serving and Stop during shutdown.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		started: time.Now(),
	}
	s.batcher = batcher.New(cfg.Batch.MaxSize, cfg.Batch.Linger, s.processBatch, nil)
	return s
}

// Start launches the batcher.
func (s *Server) Start() {
	s.batcher.Start()
}

// Stop drains and stops the batcher.
func (s *Server) Stop() {
	s.batcher.Stop()
}

// SetModel installs the loaded model. Called once at startup in the normal
// case; a degraded gateway never calls it.
func (s *Server) SetModel(m *inference.Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

func (s *Server) currentModel() *inference.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Router builds the Gin engine with all routes and middleware registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)

	v1 := router.Group("/v1")
	{
		v1.POST("/predict", s.handlePredict)
		v1.POST("/predict/batch", s.handlePredictBatch)
		v1.GET("/info", s.handleInfo)
	}

	return router
}

// processBatch bridges the batcher to the current execution backend.
func (s *Server) processBatch(ctx context.Context, requests []*batcher.Request) []batcher.Result {
	model := s.currentModel()
	if model == nil {
		results := make([]batcher.Result, len(requests))
		for i, req := range requests {
			results[i] = batcher.Result{ID: req.ID, Err: errNoModel}
		}
		return results
	}

	infReqs := make([]inference.Request, len(requests))
	for i, req := range requests {
		infReqs[i] = inference.Request{ID: req.ID, Data: req.Payload}
	}

	responses := model.Backend.PredictBatch(ctx, infReqs)

	results := make([]batcher.Result, 0, len(responses))
	for _, resp := range responses {
		results = append(results, batcher.Result{ID: resp.ID, Data: resp.Result, Err: resp.Err})
	}
	return results
}

var errNoModel = errors.New("no model loaded")

// ---- request/response shapes ----

type predictRequest struct {
	Data json.RawMessage `json:"data" binding:"required"`
}

type predictResponse struct {
	RequestID string          `json:"request_id"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type batchPredictRequest struct {
	Requests []batchItem `json:"requests" binding:"required"`
}

type batchItem struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

type batchPredictResponse struct {
	Responses []batchItemResponse `json:"responses"`
}

type batchItemResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ---- handlers ----

func (s *Server) handlePredict(c *gin.Context) {
	if s.currentModel() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no model loaded"})
		return
	}

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a data field"})
		return
	}

	telemetry.InferenceRequestsTotal.Inc()

	requestID := uuid.New().String()
	ctx, cancel := context.WithTimeout(c.Request.Context(), predictTimeout)
	defer cancel()

	result, err := s.batcher.Submit(ctx, requestID, req.Data)
	resp := predictResponse{RequestID: requestID}
	if err != nil {
		resp.Error = err.Error()
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	resp.Result = result
	c.JSON(http.StatusOK, resp)
}

// handlePredictBatch executes a caller-assembled batch. Responses come back
// in the same order as the inputs, one per input, with per-item errors; the
// call fails as a whole only when the body itself is malformed or no model
// is loaded.
func (s *Server) handlePredictBatch(c *gin.Context) {
	model := s.currentModel()
	if model == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no model loaded"})
		return
	}

	var req batchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a requests array"})
		return
	}

	// Partition items: well-formed ones go to the backend, malformed ones
	// get an error entry without poisoning the rest.
	infReqs := make([]inference.Request, 0, len(req.Requests))
	for _, item := range req.Requests {
		if item.ID == "" || len(item.Data) == 0 {
			continue
		}
		infReqs = append(infReqs, inference.Request{ID: item.ID, Data: item.Data})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), predictTimeout)
	defer cancel()

	byID := make(map[string]inference.Response, len(infReqs))
	if len(infReqs) > 0 {
		for _, resp := range model.Backend.PredictBatch(ctx, infReqs) {
			byID[resp.ID] = resp
		}
	}

	out := batchPredictResponse{Responses: make([]batchItemResponse, 0, len(req.Requests))}
	for _, item := range req.Requests {
		entry := batchItemResponse{ID: item.ID}
		switch {
		case item.ID == "":
			entry.Error = "missing request id"
		case len(item.Data) == 0:
			entry.Error = "missing data"
		default:
			resp, ok := byID[item.ID]
			if !ok {
				entry.Error = "no result returned"
			} else if resp.Err != nil {
				entry.Error = resp.Err.Error()
				telemetry.BatchItemErrorsTotal.Inc()
			} else {
				entry.Result = resp.Result
			}
		}
		out.Responses = append(out.Responses, entry)
	}

	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c *gin.Context) {
	model := s.currentModel()
	stats := s.batcher.Stats()

	body := gin.H{
		"status":       "healthy",
		"uptime":       time.Since(s.started).String(),
		"model_loaded": model != nil,
		"batcher":      stats,
	}
	if model != nil {
		body["model"] = model.Name
		body["version"] = model.Selector
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleReady(c *gin.Context) {
	if s.currentModel() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "no model loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleInfo(c *gin.Context) {
	model := s.currentModel()

	body := gin.H{
		"service": "nexus-gateway",
		"batch": gin.H{
			"max_size": s.cfg.Batch.MaxSize,
			"linger":   s.cfg.Batch.Linger.String(),
		},
		"storage_provider": s.cfg.Storage.Provider,
		"model_loaded":     model != nil,
	}
	if model != nil {
		body["model"] = gin.H{
			"name":        model.Name,
			"version":     model.Selector,
			"storage_uri": model.URI,
		}
	}
	c.JSON(http.StatusOK, body)
}
