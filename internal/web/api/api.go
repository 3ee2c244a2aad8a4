// Package api serves the JSON question endpoint and its static page.
package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"askgemini/internal/qa"
	"askgemini/internal/web"
)

//go:embed static/index.html
var indexHTML []byte

type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is returned with status 200 whether or not the model call
// succeeded; on failure Answer holds the fallback text.
type AskResponse struct {
	Processed string `json:"processed"`
	Answer    string `json:"answer"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	svc *qa.Service
	log *slog.Logger
}

func NewHandler(svc *qa.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func Register(app *fiber.App, h *Handler) {
	app.Get("/", h.Index)
	app.Post("/ask", h.Ask)
}

func (h *Handler) Index(c *fiber.Ctx) error {
	c.Type("html", "utf-8")

	return c.Status(fiber.StatusOK).Send(indexHTML)
}

func (h *Handler) Ask(c *fiber.Ctx) error {
	var req AskRequest

	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.log.WarnContext(c.UserContext(), "Failed to decode ask request",
				"error", err,
				"ip", c.IP())

			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "request body must be a JSON object with a string \"question\" field"})
		}
	}

	out := h.svc.Ask(web.CallerContext(c), req.Question)

	return c.Status(fiber.StatusOK).JSON(AskResponse{
		Processed: out.Processed,
		Answer:    out.AnswerOrFallback(),
	})
}
