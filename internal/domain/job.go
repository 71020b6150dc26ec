package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	FormatPNG = "png"
	FormatPDF = "pdf"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExportJob records one image or PDF export.
type ExportJob struct {
	ID         uuid.UUID              `json:"id"`
	TemplateID string                 `json:"template_id"`
	Format     string                 `json:"format"`
	FileName   string                 `json:"file_name"`
	Status     string                 `json:"status"`
	Error      string                 `json:"error,omitempty"`
	Size       int                    `json:"size"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// ContentType is the MIME type of the job's output.
func (j *ExportJob) ContentType() string {
	if j.Format == FormatPDF {
		return "application/pdf"
	}
	return "image/png"
}
