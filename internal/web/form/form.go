// Package form serves the server-rendered question page.
package form

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"askgemini/internal/qa"
	"askgemini/internal/web"
)

const (
	EmptyQuestionMessage = "Please provide a question before submitting."
	llmErrorPrefix       = "An internal error occurred while contacting the LLM: "
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(
	template.New("index.html").
		Funcs(template.FuncMap{"linkify": linkify}).
		ParseFS(templatesFS, "templates/index.html"),
)

type pageData struct {
	Question          string
	ProcessedQuestion string
	LLMResponse       string
	Error             string
}

type Handler struct {
	svc *qa.Service
	log *slog.Logger
}

func NewHandler(svc *qa.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts GET and POST on "/".
func Register(app *fiber.App, h *Handler) {
	app.Get("/", h.Index)
	app.Post("/", h.Submit)
}

func (h *Handler) Index(c *fiber.Ctx) error {
	return render(c, pageData{})
}

func (h *Handler) Submit(c *fiber.Ctx) error {
	original, err := qa.ValidateQuestion(c.FormValue("question"))
	if err != nil {
		h.log.DebugContext(c.UserContext(), "Empty question submitted",
			"ip", c.IP())

		return render(c, pageData{Error: EmptyQuestionMessage})
	}

	out := h.svc.Ask(web.CallerContext(c), original)

	data := pageData{
		Question:          original,
		ProcessedQuestion: out.Processed,
	}
	if out.OK() {
		data.LLMResponse = out.Answer
	} else {
		data.Error = llmErrorPrefix + out.Err.Error()
	}

	return render(c, data)
}

func render(c *fiber.Ctx, data pageData) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return err
	}

	c.Type("html", "utf-8")

	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
