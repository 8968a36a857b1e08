// internal/analysis/client.go
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"mcp-meal-scan/internal/config"
	"mcp-meal-scan/internal/imagestore"
	"mcp-meal-scan/internal/metrics"
	"mcp-meal-scan/internal/models"
	"mcp-meal-scan/internal/openai"
)

const (
	reasonNoCredential = "credential not configured"
	reasonEmpty        = "empty response"

	// panicResult labels recovered panics in metrics apart from the failure kinds.
	panicResult = "panic"
)

// VisionModel answers one prompt about one image with free-form text.
type VisionModel interface {
	Describe(ctx context.Context, req models.VisionRequest) (string, error)
}

// ImageSource resolves image references to bytes.
type ImageSource interface {
	// Stat reports the size of a readable image or an error wrapping
	// imagestore.ErrNotFound / imagestore.ErrTooLarge.
	Stat(ctx context.Context, ref models.ImageReference) (int64, error)
	Load(ctx context.Context, ref models.ImageReference) (*models.EncodedImage, error)
}

// Client turns one meal photo into one nutrition estimate. It keeps no state
// between calls and is safe for concurrent use.
type Client struct {
	cfg    *config.Config
	model  VisionModel
	images ImageSource
	logger log.Interface
}

func NewClient(cfg *config.Config, model VisionModel, images ImageSource, logger log.Interface) *Client {
	if logger == nil {
		logger = log.Log
	}
	return &Client{
		cfg:    cfg,
		model:  model,
		images: images,
		logger: logger,
	}
}

// Analyze never returns an error: every failure becomes the failure variant of
// the outcome, with a reason meant for display.
func (c *Client) Analyze(ctx context.Context, image models.ImageReference) (outcome models.AnalysisOutcome) {
	started := time.Now()
	entry := c.logger.WithFields(log.Fields{
		"analysis_id": uuid.NewString(),
		"image":       string(image),
	})

	defer func() {
		result := "ok"
		if r := recover(); r != nil {
			entry.Errorf("Analysis panicked: %v", r)
			outcome = models.Failed(models.TransportFailure, fmt.Sprintf("internal error: %v", r))
			result = panicResult
		} else if !outcome.OK {
			result = string(outcome.Kind)
		}
		metrics.AnalysesTotal.WithLabelValues(result).Inc()
		metrics.AnalysisDurationSeconds.WithLabelValues(result).Observe(time.Since(started).Seconds())
	}()

	entry.Info("Starting meal analysis")
	outcome = c.analyze(ctx, image, entry)
	if outcome.OK {
		entry.WithFields(log.Fields{
			"food_name":  outcome.Record.FoodName,
			"calories":   outcome.Record.Calories,
			"confidence": outcome.Record.ConfidenceOrZero(),
			"duration":   time.Since(started).String(),
		}).Info("Analysis finished")
	} else {
		entry.WithFields(log.Fields{
			"kind":   outcome.Kind,
			"reason": outcome.Reason,
		}).Warn("Analysis failed")
	}
	return outcome
}

func (c *Client) analyze(ctx context.Context, image models.ImageReference, entry *log.Entry) models.AnalysisOutcome {
	if c.cfg == nil || (c.cfg.CredentialRequired() && !c.cfg.CredentialConfigured()) {
		entry.Error("Vision model credential is not configured")
		return models.Failed(models.ConfigurationFailure, reasonNoCredential)
	}

	size, err := c.images.Stat(ctx, image)
	if err != nil {
		return imageFailure(entry, err)
	}
	entry.WithField("bytes", size).Debug("Image found")

	encoded, err := c.images.Load(ctx, image)
	if err != nil {
		return imageFailure(entry, err)
	}
	entry.WithFields(log.Fields{
		"mime":          encoded.MIMEType,
		"base64_length": len(encoded.Base64),
	}).Debug("Image encoded")

	text, err := c.describe(ctx, models.VisionRequest{
		Prompt:      nutritionPrompt,
		Image:       encoded,
		Detail:      c.cfg.ImageDetail,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}, entry)
	if errors.Is(err, openai.ErrNoChoices) {
		entry.Error("Vision model returned no choices")
		return models.Failed(models.FormatFailure, reasonEmpty)
	}
	if err != nil {
		entry.WithError(err).Error("Vision model request failed")
		return models.Failed(models.TransportFailure, "remote service error: "+err.Error())
	}

	if strings.TrimSpace(text) == "" {
		entry.Error("Vision model returned no content")
		return models.Failed(models.FormatFailure, reasonEmpty)
	}
	entry.WithField("content", text).Debug("Vision model answered")

	return c.parse(text, entry)
}

// parse runs extraction, decoding and validation on the model text.
func (c *Client) parse(text string, entry *log.Entry) models.AnalysisOutcome {
	span, err := ExtractJSON(text)
	if err != nil {
		entry.WithField("content", text).Error("No JSON object in model response")
		return models.Failed(models.FormatFailure, err.Error())
	}
	if n := topLevelObjects(span); n > 1 {
		entry.WithField("objects", n).Warn("Model response holds several JSON objects")
	}

	obj, err := parseObject(span)
	if err != nil {
		entry.WithError(err).WithField("json", span).Error("Failed to parse model JSON")
		return models.Failed(models.FormatFailure, "failed to process model response: "+err.Error())
	}

	if err := validateRequired(obj); err != nil {
		entry.WithError(err).WithField("json", span).Error("Model returned invalid data")
		return models.Failed(models.ValidationFailure, err.Error())
	}

	record, skipped := models.RecordFromMap(obj)
	if len(skipped) > 0 {
		entry.WithField("fields", strings.Join(skipped, ",")).Warn("Ignoring wrongly typed optional fields")
	}

	if c.cfg.StrictRanges {
		if err := validateRanges(record); err != nil {
			entry.WithError(err).Error("Model returned out of range estimates")
			return models.Failed(models.ValidationFailure, err.Error())
		}
	}

	return models.Succeeded(record)
}

// describe calls the model, retrying transient transport failures with a linear
// backoff. Each attempt gets its own timeout.
func (c *Client) describe(ctx context.Context, req models.VisionRequest, entry *log.Entry) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.cfg.RetryBackoff
			entry.WithError(lastErr).Warnf("Vision model request failed, retrying in %v", wait)
			metrics.ModelRetriesTotal.Inc()

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", lastErr
			case <-timer.C:
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		text, err := c.model.Describe(attemptCtx, req)
		cancel()
		if err == nil {
			return text, nil
		}

		lastErr = err
		if ctx.Err() != nil || !isTransient(err) {
			return "", err
		}
	}
	return "", lastErr
}

func isTransient(err error) bool {
	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func imageFailure(entry *log.Entry, err error) models.AnalysisOutcome {
	entry.WithError(err).Error("Image is not usable")
	switch {
	case errors.Is(err, imagestore.ErrTooLarge):
		return models.Failed(models.ResourceFailure, imagestore.ErrTooLarge.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.Failed(models.ResourceFailure, "image read interrupted: "+err.Error())
	default:
		return models.Failed(models.ResourceFailure, imagestore.ErrNotFound.Error())
	}
}
