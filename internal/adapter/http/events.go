package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/junsantilla/cvalley/internal/render"
)

const keepAlive = 15 * time.Second

type changePayload struct {
	TemplateID  string   `json:"templateId"`
	Placeholder bool     `json:"placeholder"`
	Headers     []string `json:"headers"`
	Skills      string   `json:"skills,omitempty"`
	HasAvatar   bool     `json:"hasAvatar"`
}

// Events streams server-sent events for one template: "change" after every
// re-render and "overflow" when the page no longer fits.
func (h *Handler) Events(c *fiber.Ctx) error {
	b, err := h.binding(c.Query("templateId"))
	if err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	events := make(chan render.Event, 16)
	cancel := b.Listen(func(ev render.Event) {
		select {
		case events <- ev:
		default:
			// a slow client only needs the latest state
		}
	})
	done := h.done
	log := h.Log

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case ev := <-events:
				if err := writeEvent(w, ev); err != nil {
					log.Debug("event stream closed", zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

func writeEvent(w io.Writer, ev render.Event) error {
	var payload interface{}
	switch ev.Kind {
	case render.EventOverflow:
		payload = ev.Warning
	default:
		vd := ev.Document
		payload = changePayload{
			TemplateID:  vd.TemplateID,
			Placeholder: vd.Placeholder,
			Headers:     vd.Headers,
			Skills:      vd.Skills,
			HasAvatar:   vd.HasAvatar,
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}
