package web

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/framelens/pkg/analysis"
	"github.com/teslashibe/framelens/pkg/metrics"
)

// Client-facing error messages.
const (
	msgNoImage         = "No image provided"
	msgInferenceFailed = "Inference service request failed"
	msgAnalysisFailed  = "Analysis failed"
	detailsHint        = "Please check your API key and try again"
)

const healthTimeout = 10 * time.Second

// ErrorResponse is the body of every non-200 analysis response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// handleAnalyze serves POST /analyze-image.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	status, body := s.process(c.UserContext(), c.Body(), getRequestID(c))
	metrics.ObserveRequest("http", status)
	return c.Status(status).JSON(body)
}

// handleHealth serves GET /health. With ?deep=1 it also checks that the
// inference provider is reachable and accepts the key.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":   "ok",
		"version":  s.cfg.Version,
		"provider": s.analyzer.Provider(),
	}
	if !c.QueryBool("deep") {
		return c.JSON(body)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()
	if err := s.analyzer.Health(ctx); err != nil {
		s.logger.Warn("inference health check failed", "request_id", getRequestID(c), "error", err)
		body["status"] = "degraded"
		body["inference"] = "unreachable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	body["inference"] = "ok"
	return c.JSON(body)
}

// process runs one analysis request and returns the response status and
// body. It never panics; every outcome is a Result or an ErrorResponse.
func (s *Server) process(ctx context.Context, raw []byte, reqID string) (status int, body any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analysis panicked", "request_id", reqID, "panic", fmt.Sprint(r))
			status, body = fiber.StatusInternalServerError, ErrorResponse{Error: msgAnalysisFailed, Details: detailsHint}
		}
	}()

	req, err := analysis.ParseRequest(raw)
	if err == nil {
		var result analysis.Result
		result, err = s.analyzer.Analyze(ctx, req)
		if err == nil {
			return fiber.StatusOK, result
		}
	}

	status, resp := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("analysis failed", "request_id", reqID, "error", err)
	} else {
		s.logger.Debug("analysis rejected", "request_id", reqID, "error", err)
	}
	return status, resp
}

// errorStatus maps an analysis error to its HTTP status and body.
// Raw error text is never exposed.
func errorStatus(err error) (int, ErrorResponse) {
	var infErr *analysis.InferenceError
	switch {
	case errors.Is(err, analysis.ErrNoImage):
		return fiber.StatusBadRequest, ErrorResponse{Error: msgNoImage}
	case errors.As(err, &infErr):
		return fiber.StatusInternalServerError, ErrorResponse{Error: msgInferenceFailed, Details: detailsHint}
	default:
		return fiber.StatusInternalServerError, ErrorResponse{Error: msgAnalysisFailed, Details: detailsHint}
	}
}

// handleError renders errors escaping the handlers, including recovered
// panics and body-limit rejections, as JSON.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
	}

	s.logger.Error("unhandled error", "request_id", getRequestID(c), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: msgAnalysisFailed, Details: detailsHint})
}
