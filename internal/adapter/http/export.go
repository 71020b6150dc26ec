package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/junsantilla/cvalley/internal/domain"
	"github.com/junsantilla/cvalley/internal/usecase"
)

// Export renders the selected template from the current document and
// answers with the file as an attachment.
func (h *Handler) Export(format string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := h.binding(c.Query("templateId"))
		if err != nil {
			return fail(c, err)
		}
		b.Refresh()

		// fiber reuses query buffers; the job record outlives the request
		req := usecase.Request{
			TemplateID: b.Variant().ID(),
			HTML:       b.Current().HTML,
			ElementID:  utils.CopyString(c.Query("elementId")),
			FileName:   utils.CopyString(c.Query("name")),
		}
		var out usecase.Output
		sink := usecase.SinkFunc(func(_ context.Context, o usecase.Output) error {
			out = o
			return nil
		})

		var job *domain.ExportJob
		if format == domain.FormatPDF {
			job, err = h.Exporter.ExportAsPdf(c.UserContext(), req, sink)
		} else {
			job, err = h.Exporter.ExportAsImage(c.UserContext(), req, sink)
		}
		if err != nil {
			body := fiber.Map{"error": err.Error()}
			if job != nil {
				body["jobId"] = job.ID.String()
			}
			return c.Status(statusFor(err)).JSON(body)
		}

		c.Attachment(out.FileName)
		c.Set(fiber.HeaderContentType, out.ContentType)
		return c.Send(out.Data)
	}
}

func (h *Handler) ListExports(c *fiber.Ctx) error {
	jobs, err := h.Exports.Recent(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"exports": jobs, "busy": h.Exporter.Busy()})
}

func (h *Handler) GetExport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid export id"})
	}
	job, ok := h.Exports.Get(c.UserContext(), id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "export not found"})
	}
	return c.JSON(job)
}
