// Package handler exposes the grading workflow as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/chen-albert-liang/grading-tool/internal/model"
	"github.com/chen-albert-liang/grading-tool/internal/ocr"
	"github.com/chen-albert-liang/grading-tool/internal/report"
	"github.com/chen-albert-liang/grading-tool/internal/store"
	"github.com/chen-albert-liang/grading-tool/internal/template"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
	cfg   model.Config

	mu         sync.RWMutex
	template   *model.AnswerTemplate
	templateID int64
}

// New creates a Handler. If the store already holds a template, the
// most recent one becomes the active grading session.
func New(s *store.Store, cfg model.Config) (*Handler, error) {
	h := &Handler{store: s, cfg: cfg}

	id, name, err := s.ActiveTemplate()
	if err != nil {
		return nil, err
	}
	if id != 0 {
		tpl, err := s.GetTemplate(id)
		if err != nil {
			return nil, err
		}
		h.template = tpl
		h.templateID = id
		slog.Info("loaded stored template",
			"template_id", id, "name", name, "questions", tpl.Len())
	}
	return h, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/template", h.handleBuildTemplate)
	r.Get("/template", h.handleGetTemplate)
	r.Post("/grade/{studentID}", h.handleGradeStudent)
	r.Get("/report", h.handleClassReport)
}

func (h *Handler) activeTemplate() (*model.AnswerTemplate, int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.template, h.templateID
}

// handleBuildTemplate accepts a teacher's OCR result JSON, builds the
// answer template, persists it, and makes it the active session.
func (h *Handler) handleBuildTemplate(w http.ResponseWriter, r *http.Request) {
	stream, err := ocr.Parse(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tpl, err := template.NewBuilder(h.cfg).Build(stream)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, template.ErrNoQuestions) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "uploaded"
	}
	id, err := h.store.SaveTemplate(name, tpl)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.store.SetActiveTemplate(id, name); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.template = tpl
	h.templateID = id
	h.mu.Unlock()

	slog.Info("template built", "template_id", id, "name", name, "questions", tpl.Len())
	writeJSON(w, http.StatusCreated, tpl)
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, _ := h.activeTemplate()
	if tpl == nil {
		http.Error(w, "no template loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// handleGradeStudent accepts one student's OCR result JSON, grades it
// against the active template, and persists the report.
func (h *Handler) handleGradeStudent(w http.ResponseWriter, r *http.Request) {
	tpl, templateID := h.activeTemplate()
	if tpl == nil {
		http.Error(w, "no template loaded", http.StatusConflict)
		return
	}

	studentID := chi.URLParam(r, "studentID")
	stream, err := ocr.Parse(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep := report.GradeStudent(tpl, report.Student{ID: studentID, Stream: stream}, h.cfg)
	if _, err := h.store.SaveReport(templateID, rep); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("student graded",
		"student", studentID, "score", rep.TotalScore, "max", rep.MaxScore)
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleClassReport(w http.ResponseWriter, r *http.Request) {
	_, templateID := h.activeTemplate()
	if templateID == 0 {
		http.Error(w, "no template loaded", http.StatusNotFound)
		return
	}

	reports, err := h.store.ListReports(templateID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report.BuildClassReport(reports))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
