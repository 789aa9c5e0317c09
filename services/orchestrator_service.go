package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/models"
)

// IngestFile is one uploaded file handed to the orchestrator.
type IngestFile struct {
	Filename string
	Bytes    []byte
	MimeType string
}

// OrchestratorService owns the bounded job queue and worker pool (spec.md §5,
// §4.12). SubmitJob returns immediately with the job id; workers drain the
// queue in the background.
type OrchestratorService interface {
	SubmitJob(ctx context.Context, brandHint string, files []IngestFile) (*models.IngestResponse, error)
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error)
	Cancel(jobID uuid.UUID) error
	// Shutdown drains the queue without starting new work and waits up to the
	// configured graceful-shutdown timeout for in-flight workers.
	Shutdown(ctx context.Context) error
}
