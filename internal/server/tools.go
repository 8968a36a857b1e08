// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"mcp-meal-scan/internal/models"
)

const (
	toolAnalyzeMealPhoto   = "analyze_meal_photo"
	toolCheckConfiguration = "check_configuration"
)

type AnalyzeMealPhotoParams struct {
	ImagePath string `json:"image_path" description:"Local path or file:// URI of the captured meal photo"`
}

// AnalyzeMealPhotoResult is the analysis outcome plus, on failure, the sample
// estimate the client should show alongside the reason.
type AnalyzeMealPhotoResult struct {
	models.AnalysisOutcome
	Placeholder *models.NutritionRecord `json:"placeholder,omitempty"`
}

type ConfigurationStatus struct {
	CredentialConfigured bool   `json:"credential_configured"`
	Provider             string `json:"provider"`
	Model                string `json:"model"`
}

type toolHandler struct {
	description string
	fn          func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	return nil
}

// handleAnalyzeMealPhoto runs one analysis. Analysis failures are not tool
// errors: they come back as ok=false with a placeholder estimate.
func (s *MealScanServer) handleAnalyzeMealPhoto(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params AnalyzeMealPhotoParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if strings.TrimSpace(params.ImagePath) == "" {
		return nil, fmt.Errorf("image_path is required")
	}

	outcome := s.analyzer.Analyze(ctx, models.ImageReference(params.ImagePath))

	result := AnalyzeMealPhotoResult{AnalysisOutcome: outcome}
	if !outcome.OK {
		result.Placeholder = models.Placeholder()
	}

	return s.createJSONResponse(result)
}

// handleCheckConfiguration tells the client whether real analyses are possible.
func (s *MealScanServer) handleCheckConfiguration(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return s.createJSONResponse(ConfigurationStatus{
		CredentialConfigured: s.config.CredentialConfigured(),
		Provider:             s.config.Provider,
		Model:                s.modelName,
	})
}

func (s *MealScanServer) registerTools() {
	s.tools = map[string]toolHandler{
		toolAnalyzeMealPhoto: {
			description: "Estimate calories, macros, sugar and vitamins from a meal photo",
			fn:          s.handleAnalyzeMealPhoto,
		},
		toolCheckConfiguration: {
			description: "Report whether the vision model credential is configured",
			fn:          s.handleCheckConfiguration,
		},
	}

	for _, tool := range s.toolList() {
		s.logger.WithField("tool", tool.Name).Debug("Registered tool")
	}
}

func (s *MealScanServer) toolList() []toolInfo {
	tools := make([]toolInfo, 0, len(s.tools))
	for name, handler := range s.tools {
		tools = append(tools, toolInfo{Name: name, Description: handler.description})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}
