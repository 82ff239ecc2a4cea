// Package web serves the planner form and renders results.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"

	"retirement_planner/internal/ai"
	"retirement_planner/internal/config"
	"retirement_planner/internal/models"
	"retirement_planner/internal/profile"
	"retirement_planner/internal/summary"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

// Banner texts shown above the form.
const (
	NarrativeFailedMessage = "The language model request failed. Check your API key, quota, or logs for details."
	TokenExpiredMessage    = "Your form has expired. Please submit it again."
)

// Snapshotter produces the market snapshot for one request.
type Snapshotter interface {
	Snapshot(ctx context.Context) models.MarketSnapshot
}

// Narrator turns the formatted summary into narrative text.
type Narrator interface {
	Generate(ctx context.Context, summary string) (string, error)
}

// Handler runs the form -> profile -> snapshot -> summary -> narrative flow.
type Handler struct {
	cfg      *config.Config
	market   Snapshotter
	narrator Narrator
	tmpl     *template.Template
	md       goldmark.Markdown
	tokens   tokenSigner
}

type pageData struct {
	Form           map[string]string
	Token          string
	Errors         []string
	RiskOptions    []string
	Profile        *models.UserProfile
	Market         *models.MarketSnapshot
	Summary        string
	Narrative      template.HTML
	NarrativeError string
}

// NewHandler parses the page template and wires the collaborators.
func NewHandler(cfg *config.Config, market Snapshotter, narrator Narrator) (*Handler, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"money":   summary.Currency,
		"percent": summary.Percent,
		"age":     summary.Age,
		"fixed2":  summary.Fixed2,
		"ratio":   func(r *float64) float64 { return *r },
		"mul100":  func(v float64) float64 { return v * 100 },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		cfg:      cfg,
		market:   market,
		narrator: narrator,
		tmpl:     tmpl,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		tokens:   tokenSigner{key: []byte(cfg.SecretKey)},
	}, nil
}

// Routes mounts the planner on a chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", h.Index)
	r.Post("/", h.Submit)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

// Index renders the empty form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.newPage(nil))
}

// Submit validates the form, computes the profile and, when valid, fetches
// the market snapshot and the narrative.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := h.newPage(nil)
		page.Errors = append(page.Errors, "Could not read the submitted form.")
		h.render(w, r, http.StatusBadRequest, page)
		return
	}

	page := h.newPage(r.PostForm)
	id := RequestIDFrom(r.Context())

	if !h.tokens.Verify(r.PostForm.Get("csrf_token")) {
		log.Printf("WARN: [%s] rejected form with invalid token", id)
		page.Errors = append(page.Errors, TokenExpiredMessage)
		h.render(w, r, http.StatusForbidden, page)
		return
	}

	p, err := profile.Build(r.PostForm)
	if err != nil {
		page.Errors = append(page.Errors, err.Error())
		h.render(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	page.Profile = &p

	snap := h.market.Snapshot(r.Context())
	page.Market = &snap
	page.Summary = summary.Format(p, snap)

	text, err := h.narrator.Generate(r.Context(), page.Summary)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			log.Printf("ERROR: [%s] narrative skipped: %v", id, err)
		} else {
			log.Printf("ERROR: [%s] narrative generation failed: %v", id, err)
		}
		page.NarrativeError = err.Error()
		page.Errors = append(page.Errors, NarrativeFailedMessage)
	} else {
		page.Narrative = h.renderMarkdown(text)
	}

	h.render(w, r, http.StatusOK, page)
}

func (h *Handler) newPage(form url.Values) *pageData {
	values := make(map[string]string, len(form))
	for k := range form {
		values[k] = form.Get(k)
	}
	if values["risk"] == "" {
		values["risk"] = models.RiskModerate
	}
	return &pageData{
		Form:        values,
		Token:       h.tokens.Issue(),
		RiskOptions: []string{models.RiskConservative, models.RiskModerate, models.RiskAggressive},
	}
}

// renderMarkdown converts model output to HTML. Raw HTML in the output is
// dropped by goldmark's default renderer.
func (h *Handler) renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>")
	}
	return template.HTML(buf.String())
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page *pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, page); err != nil {
		log.Printf("ERROR: [%s] render template: %v", RequestIDFrom(r.Context()), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
