package ingestion

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/deadletter"
	"github.com/trunkstore-lab/trunkstore/internal/model"
)

// ListDeadLettersHandler lists parked entries, optionally filtered by queue and call id.
func (s *Service) ListDeadLettersHandler(c *gin.Context) {
	f := deadletter.Filter{
		Queue:  deadletter.Queue(c.Query("queue")),
		CallID: c.Query("call_id"),
	}
	if f.Queue != "" && !f.Queue.Valid() {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  ingesterr.HttpValidationError,
			message:    "queue must be deadletter or quarantine",
		})
		return
	}

	entries, err := s.deadletters.List(c.Request.Context(), f)
	if err != nil {
		slog.Error("Failed to list dead-letter entries", "error", err)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  ingesterr.HttpInternalError,
			message:    "Failed to list dead-letter entries",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (s *Service) GetDeadLetterHandler(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}
	e, err := s.deadletters.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, deadLetterError(id, err))
		return
	}
	c.JSON(http.StatusOK, e)
}

// ReplayDeadLetterHandler pushes an entry's payload back through the pipeline.
func (s *Service) ReplayDeadLetterHandler(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}
	res, err := s.deadletters.Replay(c.Request.Context(), id, s.pipeline)
	if err != nil {
		writeError(c, deadLetterError(id, err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Service) DiscardDeadLetterHandler(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}
	if err := s.deadletters.Discard(c.Request.Context(), id); err != nil {
		writeError(c, deadLetterError(id, err))
		return
	}
	c.Status(http.StatusNoContent)
}

func entryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  ingesterr.HttpValidationError,
			message:    "id must be a UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

func deadLetterError(id uuid.UUID, err error) *ingestionError {
	if errors.Is(err, deadletter.ErrNotFound) {
		return &ingestionError{
			statusCode: http.StatusNotFound,
			errorType:  ingesterr.HttpNotFoundError,
			message:    err.Error(),
			details:    map[string]interface{}{"id": id},
		}
	}
	slog.Error("Dead-letter operation failed", "id", id, "error", err)
	return pipelineError("", err)
}

// PutTalkgroupHandler creates or updates a talkgroup reference row.
func (s *Service) PutTalkgroupHandler(c *gin.Context) {
	if !s.referenceUpdatesAllowed(c) {
		return
	}
	tg, ok := referenceID(c, "talkgroup")
	if !ok {
		return
	}

	var body v1.TalkgroupRecord
	if err := s.bindBody(c, &body); err != nil {
		writeError(c, err)
		return
	}

	row := model.Talkgroup{
		Talkgroup:   tg,
		Tag:         body.Tag,
		Description: body.Description,
		GroupTag:    body.GroupTag,
		Group:       body.Group,
	}
	if err := s.references.UpsertTalkgroup(c.Request.Context(), row); err != nil {
		writeError(c, referenceError("talkgroup", int64(tg), err))
		return
	}
	slog.Info("Talkgroup updated", "talkgroup", tg)
	c.JSON(http.StatusOK, gin.H{"talkgroup": tg, "status": "updated"})
}

// PutSourceHandler creates or updates a source reference row.
func (s *Service) PutSourceHandler(c *gin.Context) {
	if !s.referenceUpdatesAllowed(c) {
		return
	}
	src, ok := referenceID(c, "src")
	if !ok {
		return
	}

	var body v1.SourceRecord
	if err := s.bindBody(c, &body); err != nil {
		writeError(c, err)
		return
	}

	if err := s.references.UpsertSource(c.Request.Context(), model.Source{Src: src, Tag: body.Tag}); err != nil {
		writeError(c, referenceError("src", int64(src), err))
		return
	}
	slog.Info("Source updated", "src", src)
	c.JSON(http.StatusOK, gin.H{"src": src, "status": "updated"})
}

func (s *Service) referenceUpdatesAllowed(c *gin.Context) bool {
	if s.references != nil {
		return true
	}
	writeError(c, &ingestionError{
		statusCode: http.StatusForbidden,
		errorType:  ingesterr.HttpUpdatesDisabledError,
		message:    "Reference updates are disabled",
	})
	return false
}

func referenceID(c *gin.Context, param string) (int32, bool) {
	n, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || n <= 0 || n > math.MaxInt32 {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  ingesterr.HttpValidationError,
			message:    param + " must be a positive 32-bit integer",
		})
		return 0, false
	}
	return int32(n), true
}

func referenceError(field string, id int64, err error) *ingestionError {
	slog.Error("Reference update failed", field, id, "error", err)
	if ingesterr.IsTransient(err) {
		return &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  ingesterr.HttpStorageUnavailable,
			message:    "Storage is unavailable",
		}
	}
	return &ingestionError{
		statusCode: http.StatusInternalServerError,
		errorType:  ingesterr.HttpInternalError,
		message:    "Failed to update " + field,
	}
}
