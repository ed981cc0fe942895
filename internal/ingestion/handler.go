package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/normalize"
	"github.com/trunkstore-lab/trunkstore/internal/sequencer"
)

const (
	msgReadBodyFailed  = "Failed to read request body"
	msgInvalidJSON     = "Invalid JSON body"
	msgPipelineStopped = "Pipeline is not accepting records"
	msgPipelineFailed  = "Failed to process records"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestCallHandler accepts one recorder call record, optionally with its
// freqList and srcList embedded.
func (s *Service) IngestCallHandler(c *gin.Context) {
	var rec v1.CallRecord
	if err := s.bindBody(c, &rec); err != nil {
		writeError(c, err)
		return
	}

	callID, err := normalize.Filename(&rec)
	if err != nil {
		slog.Warn("Call record has no usable filename", "error", err)
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  ingesterr.HttpValidationError,
			message:    err.Error(),
		})
		return
	}

	s.submit(c, v1.NewCallPayload(callID, &rec))
}

// IngestFreqListHandler accepts the frequency observations of one call.
func (s *Service) IngestFreqListHandler(c *gin.Context) {
	var entries []v1.FreqEntry
	if err := s.bindBody(c, &entries); err != nil {
		writeError(c, err)
		return
	}
	s.submit(c, &v1.Payload{CallID: c.Param("call_id"), FreqList: entries})
}

// IngestSrcListHandler accepts the signal source observations of one call.
func (s *Service) IngestSrcListHandler(c *gin.Context) {
	var entries []v1.SrcEntry
	if err := s.bindBody(c, &entries); err != nil {
		writeError(c, err)
		return
	}
	s.submit(c, &v1.Payload{CallID: c.Param("call_id"), SrcList: entries})
}

func (s *Service) submit(c *gin.Context, p *v1.Payload) {
	if err := p.Validate(); err != nil {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  ingesterr.HttpValidationError,
			message:    err.Error(),
		})
		return
	}

	slog.Info("Received records",
		"call_id", p.CallID,
		"call", p.Call != nil,
		"freq_list", len(p.FreqList),
		"src_list", len(p.SrcList))

	report, err := s.pipeline.Submit(c.Request.Context(), p)
	if err != nil {
		writeError(c, pipelineError(p.CallID, err))
		return
	}
	writeReport(c, report)
}

// bindBody reads the request body under the size limit and decodes it into dst.
func (s *Service) bindBody(c *gin.Context, dst interface{}) *ingestionError {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  ingesterr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  ingesterr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  ingesterr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return nil
}

func pipelineError(callID string, err error) *ingestionError {
	switch {
	case errors.Is(err, sequencer.ErrStopped), errors.Is(err, sequencer.ErrNotStarted),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Warn("Pipeline unavailable", "call_id", callID, "error", err)
		return &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  ingesterr.HttpStorageUnavailable,
			message:    msgPipelineStopped,
		}
	default:
		slog.Error("Pipeline failed", "call_id", callID, "error", err)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  ingesterr.HttpInternalError,
			message:    msgPipelineFailed,
		}
	}
}

// writeReport picks the status code from the report: 200 when everything is
// stored, 202 when some records wait for their call, 207 for a partial
// success and an error status when nothing was accepted.
func writeReport(c *gin.Context, r *sequencer.Report) {
	failure := firstFailure(r)
	switch {
	case failure == nil && r.Settled():
		c.JSON(http.StatusOK, r)
	case failure == nil:
		c.JSON(http.StatusAccepted, r)
	case r.Accepted():
		c.JSON(http.StatusMultiStatus, r)
	default:
		status, errorType := statusForKind(ingesterr.ParseKind(failure.ErrorKind))
		writeError(c, &ingestionError{
			statusCode: status,
			errorType:  errorType,
			message:    failure.Error,
			details:    r,
		})
	}
}

func firstFailure(r *sequencer.Report) *sequencer.ItemReport {
	if r.Call != nil && r.Call.Error != "" {
		return r.Call
	}
	for i := range r.FreqList {
		if r.FreqList[i].Error != "" {
			return &r.FreqList[i]
		}
	}
	for i := range r.SrcList {
		if r.SrcList[i].Error != "" {
			return &r.SrcList[i]
		}
	}
	return nil
}

func statusForKind(k ingesterr.Kind) (int, string) {
	switch k {
	case ingesterr.KindValidation:
		return http.StatusBadRequest, ingesterr.HttpValidationError
	case ingesterr.KindUnknownAudioType:
		return http.StatusUnprocessableEntity, ingesterr.HttpUnknownAudioTypeError
	case ingesterr.KindReferenceNotFound:
		return http.StatusUnprocessableEntity, ingesterr.HttpReferenceNotFoundError
	case ingesterr.KindConflict, ingesterr.KindHashCollision:
		return http.StatusConflict, ingesterr.HttpConflictError
	case ingesterr.KindStorageUnavailable, ingesterr.KindDeferredWriteFailure:
		return http.StatusServiceUnavailable, ingesterr.HttpStorageUnavailable
	default:
		return http.StatusInternalServerError, ingesterr.HttpInternalError
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, ingesterr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
