package ingestion

import (
	"context"

	"github.com/gin-gonic/gin"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	"github.com/trunkstore-lab/trunkstore/internal/deadletter"
	"github.com/trunkstore-lab/trunkstore/internal/model"
	"github.com/trunkstore-lab/trunkstore/internal/sequencer"
)

// Pipeline is the part of the sequencer the HTTP boundary drives.
type Pipeline interface {
	Submit(ctx context.Context, p *v1.Payload) (*sequencer.Report, error)
	Resubmit(ctx context.Context, p *v1.Payload) (bool, error)
}

// ReferenceWriter updates talkgroup and source rows.
type ReferenceWriter interface {
	UpsertTalkgroup(ctx context.Context, tg model.Talkgroup) error
	UpsertSource(ctx context.Context, src model.Source) error
}

type Service struct {
	pipeline         Pipeline
	deadletters      *deadletter.Service
	references       ReferenceWriter
	maxBodySizeBytes int
}

// NewService creates the HTTP boundary. references may be nil, in which case
// the reference update routes answer 403.
func NewService(p Pipeline, dl *deadletter.Service, references ReferenceWriter, maxBodySizeMB int) *Service {
	if p == nil {
		panic("ingestion: pipeline must not be nil")
	}
	if dl == nil {
		panic("ingestion: dead-letter service must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		pipeline:         p,
		deadletters:      dl,
		references:       references,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion and operator routes. Call ids are
// recorder filenames and contain slashes, so the engine must route on the
// raw path.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/calls", s.IngestCallHandler)
	r.POST("/v1/calls/:call_id/freqlist", s.IngestFreqListHandler)
	r.POST("/v1/calls/:call_id/srclist", s.IngestSrcListHandler)

	r.GET("/v1/deadletters", s.ListDeadLettersHandler)
	r.GET("/v1/deadletters/:id", s.GetDeadLetterHandler)
	r.POST("/v1/deadletters/:id/replay", s.ReplayDeadLetterHandler)
	r.DELETE("/v1/deadletters/:id", s.DiscardDeadLetterHandler)

	r.PUT("/v1/talkgroups/:talkgroup", s.PutTalkgroupHandler)
	r.PUT("/v1/sources/:src", s.PutSourceHandler)
}
