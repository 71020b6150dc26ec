package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/junsantilla/cvalley/internal/form"
	"github.com/junsantilla/cvalley/internal/model"
)

type valueReq struct {
	Value string `json:"value"`
}

type imageReq struct {
	DataURL string `json:"dataUrl"`
}

type storageState interface {
	Available() bool
}

func (h *Handler) GetDocument(c *fiber.Ctx) error {
	resp := fiber.Map{
		"state":    h.Controller.State().String(),
		"document": h.Controller.Document(),
	}
	if s, ok := h.Source.(storageState); ok {
		resp["storageAvailable"] = s.Available()
	}
	return c.JSON(resp)
}

func (h *Handler) ReplaceDocument(c *fiber.Ctx) error {
	var doc model.ResumeDocument
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	return h.result(c, h.Controller.LoadDocument(doc), fiber.StatusOK)
}

func (h *Handler) ClearDocument(c *fiber.Ctx) error {
	return h.result(c, h.Controller.ClearDocument(), fiber.StatusOK)
}

func (h *Handler) LoadSample(c *fiber.Ctx) error {
	return h.result(c, h.Controller.LoadSample(), fiber.StatusOK)
}

func (h *Handler) SetImage(c *fiber.Ctx) error {
	var req imageReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	res := h.Controller.SetImagePreview(req.DataURL)
	if res.OK() {
		h.refreshBindings()
	}
	return h.result(c, res, fiber.StatusOK)
}

func (h *Handler) SetField(c *fiber.Ctx) error {
	var req valueReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	return h.result(c, h.Controller.SetScalarField(c.Params("name"), req.Value), fiber.StatusOK)
}

func (h *Handler) AppendEntry(c *fiber.Ctx) error {
	section, err := sectionParam(c)
	if err != nil {
		return fail(c, err)
	}
	var fields map[string]string
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&fields); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}
	}
	return h.result(c, h.Controller.AppendEntry(section, fields), fiber.StatusCreated)
}

// SetEntryField addresses the entry by position, or by id when :index is
// not a number.
func (h *Handler) SetEntryField(c *fiber.Ctx) error {
	section, err := sectionParam(c)
	if err != nil {
		return fail(c, err)
	}
	var req valueReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	field := c.Params("field")

	index, isIndex, err := h.entryIndex(c, section)
	if err != nil {
		return fail(c, err)
	}
	if !isIndex {
		return h.result(c, h.Controller.SetEntryFieldByID(section, c.Params("index"), field, req.Value), fiber.StatusOK)
	}
	return h.result(c, h.Controller.SetEntryField(section, index, field, req.Value), fiber.StatusOK)
}

func (h *Handler) RemoveEntry(c *fiber.Ctx) error {
	section, err := sectionParam(c)
	if err != nil {
		return fail(c, err)
	}
	index, isIndex, err := h.entryIndex(c, section)
	if err != nil {
		return fail(c, err)
	}
	if !isIndex {
		return h.result(c, h.Controller.RemoveEntryByID(section, c.Params("index")), fiber.StatusOK)
	}
	return h.result(c, h.Controller.RemoveEntry(section, index), fiber.StatusOK)
}

// entryIndex parses :index. A request naming an entry that is not there is
// the client's mistake, so it is answered here rather than reaching the
// controller, which treats a bad index as a programming error.
func (h *Handler) entryIndex(c *fiber.Ctx, section model.Section) (int, bool, error) {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return 0, false, nil
	}
	if n := h.Controller.Document().Len(section); index < 0 || index >= n {
		return 0, true, fmt.Errorf("%w: %s[%d] with %d entries", form.ErrIndexOutOfRange, section, index, n)
	}
	return index, true, nil
}

func sectionParam(c *fiber.Ctx) (model.Section, error) {
	name := c.Params("section")
	section, ok := model.ParseSection(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", form.ErrUnknownSection, name)
	}
	return section, nil
}

func (h *Handler) result(c *fiber.Ctx, res form.Result, okStatus int) error {
	if !res.OK() {
		return fail(c, res.Err)
	}
	body := fiber.Map{"document": h.Controller.Document()}
	if res.Index >= 0 {
		body["index"] = res.Index
	}
	if res.ID != "" {
		body["id"] = res.ID
	}
	return c.Status(okStatus).JSON(body)
}
