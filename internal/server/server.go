// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mcp-meal-scan/internal/config"
	"mcp-meal-scan/internal/metrics"
	"mcp-meal-scan/internal/models"
)

const (
	serverName    = "meal-scan"
	serverVersion = "1.0.0"
)

// Analyzer is the analysis operation the tools expose.
type Analyzer interface {
	Analyze(ctx context.Context, image models.ImageReference) models.AnalysisOutcome
}

type MealScanServer struct {
	httpServer *http.Server
	analyzer   Analyzer
	config     *config.Config
	modelName  string
	logger     log.Interface
	tools      map[string]toolHandler
}

func NewMealScanServer(cfg *config.Config, analyzer Analyzer, modelName string, logger log.Interface) (*MealScanServer, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if logger == nil {
		logger = log.Log
	}

	s := &MealScanServer{
		analyzer:  analyzer,
		config:    cfg,
		modelName: modelName,
		logger:    logger,
	}
	s.registerTools()

	metrics.Register()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHTTP)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler exposes the routes without starting a listener.
func (s *MealScanServer) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *MealScanServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.info())
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	entry := s.logger.WithFields(log.Fields{
		"request_id": requestID,
		"tool":       request.Name,
	})

	handler, ok := s.tools[request.Name]
	if !ok {
		entry.Warn("Unknown tool requested")
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	result, err := handler.fn(r.Context(), &request)
	if err != nil {
		entry.WithError(err).Warn("Tool call rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry.Debug("Tool call handled")
	s.writeJSON(w, http.StatusOK, result)
}

func (s *MealScanServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type serverInfo struct {
	Server protocol.Implementation `json:"server"`
	Tools  []toolInfo              `json:"tools"`
}

func (s *MealScanServer) info() serverInfo {
	return serverInfo{
		Server: protocol.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		Tools: s.toolList(),
	}
}

func (s *MealScanServer) Start(ctx context.Context) error {
	s.logger.Infof("Starting meal scan server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *MealScanServer) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *MealScanServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *MealScanServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
