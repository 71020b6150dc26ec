package http

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/junsantilla/cvalley/internal/render"
)

var selectionPage = template.Must(template.New("select").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Choose a template</title></head>
<body>
<h1>Choose a template</h1>
<nav>
<a href="/cv-builder">All</a>
{{range .Categories}}<a href="/cv-builder?category={{.}}">{{.}}</a>
{{end}}</nav>
<ul>
{{range .Templates}}<li><a href="/cv-builder?templateId={{.ID}}"><strong>{{.Title}}</strong></a> <span>{{.Category}}</span><p>{{.Description}}</p></li>
{{end}}</ul>
</body>
</html>
`))

// liveReload is appended to previews so an open preview follows edits. An
// overflow fills the banner; the next change clears it with the reload.
const liveReload = `<div id="overflow-warning" role="status" style="position:fixed;top:0;left:0;right:0;padding:8px;background:#fff3cd;color:#664d03;font:14px sans-serif"%s>%s</div>
<script>
(function () {
	var banner = document.getElementById("overflow-warning");
	var es = new EventSource("/events?templateId=%s");
	es.addEventListener("change", function () { location.reload(); });
	es.addEventListener("overflow", function (e) {
		banner.textContent = JSON.parse(e.data).message;
		banner.hidden = false;
	});
})();
</script>`

func (h *Handler) ListTemplates(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"templates":  render.Catalogue(c.Query("category")),
		"categories": render.Categories(),
	})
}

// Preview serves the selected template rendered from the current document.
// Without templateId it serves the template selection page.
func (h *Handler) Preview(c *fiber.Ctx) error {
	id := c.Query("templateId")
	if id == "" {
		var buf bytes.Buffer
		err := selectionPage.Execute(&buf, fiber.Map{
			"Categories": render.Categories(),
			"Templates":  render.Catalogue(c.Query("category")),
		})
		if err != nil {
			return fail(c, err)
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}

	b, err := h.binding(id)
	if err != nil {
		return fail(c, err)
	}
	page := b.Current().HTML
	hidden, message := " hidden", ""
	if w := b.Warning(); w != nil {
		hidden, message = "", template.HTMLEscapeString(w.Message)
	}
	script := fmt.Sprintf(liveReload, hidden, message, template.JSEscapeString(b.Variant().ID()))
	if i := strings.LastIndex(page, "</body>"); i >= 0 {
		page = page[:i] + script + page[i:]
	} else {
		page += script
	}
	c.Type("html", "utf-8")
	return c.SendString(page)
}
