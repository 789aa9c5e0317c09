package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/services"
)

// IngestHandlers serves the multipart ingest endpoint and job-status lookup
// (spec.md §6, §5), delegating all per-file work to the Ingestion
// Orchestrator's bounded job queue.
type IngestHandlers struct {
	orchestrator services.OrchestratorService
}

// NewIngestHandlers constructs the ingest handlers.
func NewIngestHandlers(orchestrator services.OrchestratorService) *IngestHandlers {
	return &IngestHandlers{orchestrator: orchestrator}
}

const maxUploadBytes = 64 << 20 // 64MB per file, mirrors extractor's accepted doc sizes

func (h *IngestHandlers) Ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "expected multipart/form-data", err))
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		writeError(c, catalogerr.New(catalogerr.KindValidation, `no files provided under the "files" field`))
		return
	}

	brandHint := c.PostForm("brand_hint")

	files := make([]services.IngestFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		f.Close()
		if err != nil {
			continue
		}
		files = append(files, services.IngestFile{
			Filename: fh.Filename,
			Bytes:    data,
			MimeType: fh.Header.Get("Content-Type"),
		})
	}

	resp, err := h.orchestrator.SubmitJob(c.Request.Context(), brandHint, files)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *IngestHandlers) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "invalid job id", err))
		return
	}

	job, err := h.orchestrator.GetJobStatus(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

func (h *IngestHandlers) CancelJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "invalid job id", err))
		return
	}

	if err := h.orchestrator.Cancel(id); err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "failed to cancel job", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}
