// Package receiver accepts the multipart posts produced by form controllers,
// validates them against their form definition and stores them.
package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formulate/pkg/controller"
	"github.com/goliatone/go-formulate/pkg/localize"
	"github.com/goliatone/go-formulate/pkg/model"
)

const defaultMaxMemory = 8 << 20

// Forms looks up form definitions by id.
type Forms interface {
	Form(id string) (model.FormDefinition, bool)
}

// Catalog is a Forms backed by a map, as returned by model.LoadFS.
type Catalog map[string]model.FormDefinition

func (c Catalog) Form(id string) (model.FormDefinition, bool) {
	def, ok := c[id]
	return def, ok
}

// Config defines the dependencies of Handler.
type Config struct {
	Forms     Forms
	Store     Store
	Validator controller.Validator
	Texts     *localize.TextService
	Logger    logrus.FieldLogger
	// MaxMemory bounds the multipart parser's in-memory buffer.
	MaxMemory int64
	Now       func() time.Time
	NewID     func() string
}

// Handler serves the submission endpoints.
type Handler struct {
	forms     Forms
	store     Store
	validator controller.Validator
	texts     *localize.TextService
	logger    logrus.FieldLogger
	maxMemory int64
	now       func() time.Time
	newID     func() string
}

// NewHandler constructs a Handler, filling unset dependencies with defaults.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		forms:     cfg.Forms,
		store:     cfg.Store,
		validator: cfg.Validator,
		texts:     cfg.Texts,
		logger:    cfg.Logger,
		maxMemory: cfg.MaxMemory,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	if h.forms == nil {
		h.forms = Catalog{}
	}
	if h.store == nil {
		h.store = NewMemoryStore()
	}
	if h.validator == nil {
		h.validator = controller.FieldValidator{}
	}
	if h.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		h.logger = discard
	}
	if h.maxMemory <= 0 {
		h.maxMemory = defaultMaxMemory
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = func() string { return uuid.NewString() }
	}
	return h
}

// Register mounts the routes onto r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.healthHandler())
	r.Post("/forms/{formID}/submissions", h.submitHandler())
	r.Get("/forms/{formID}/submissions", h.listHandler())
	r.Get("/forms/{formID}/submissions/{id}", h.getHandler())
	r.Get("/labels/{category}/{name}", h.labelHandler())
}

// NewRouter returns a chi router with the standard middleware stack and the
// handler's routes.
func NewRouter(h *Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	h.Register(router)
	return router
}

type response struct {
	Success bool                `json:"Success"`
	Message string              `json:"Message,omitempty"`
	Errors  map[string][]string `json:"Errors,omitempty"`
	Data    any                 `json:"data,omitempty"`
}

func (h *Handler) submitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formID")
		logger := h.logger.WithFields(logrus.Fields{
			"form":       formID,
			"request_id": middleware.GetReqID(r.Context()),
		})

		def, ok := h.forms.Form(formID)
		if !ok {
			h.writeJSON(w, http.StatusNotFound, response{Message: "unknown form"})
			return
		}
		if err := r.ParseMultipartForm(h.maxMemory); err != nil {
			logger.WithError(err).Debug("rejecting unparsable submission")
			h.writeJSON(w, http.StatusBadRequest, response{Message: "expected a multipart/form-data body"})
			return
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		sub, err := h.decode(def, r.MultipartForm)
		if err != nil {
			logger.WithError(err).Warn("failed to read uploaded file")
			h.writeJSON(w, http.StatusBadRequest, response{Message: "could not read uploaded file"})
			return
		}

		if err := h.validator.Validate(def, validationValues(sub)); err != nil {
			res := response{Message: err.Error()}
			var issues controller.ValidationErrors
			if errors.As(err, &issues) {
				res.Errors = issues
			}
			h.writeJSON(w, http.StatusUnprocessableEntity, res)
			return
		}

		sub.ID = h.newID()
		sub.FormID = formID
		sub.CreatedAt = h.now().UTC()
		if err := h.store.Save(r.Context(), sub); err != nil {
			logger.WithError(err).Error("failed to store submission")
			h.writeJSON(w, http.StatusInternalServerError, response{Message: "submission could not be stored"})
			return
		}

		logger.WithField("submission", sub.ID).Info("submission stored")
		h.writeJSON(w, http.StatusCreated, response{Success: true, Data: map[string]string{"id": sub.ID}})
	}
}

func (h *Handler) listHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formID")
		if _, ok := h.forms.Form(formID); !ok {
			h.writeJSON(w, http.StatusNotFound, response{Message: "unknown form"})
			return
		}
		subs, err := h.store.List(r.Context(), formID)
		if err != nil {
			h.logger.WithError(err).Error("failed to list submissions")
			h.writeJSON(w, http.StatusInternalServerError, response{Message: "submissions could not be listed"})
			return
		}
		h.writeJSON(w, http.StatusOK, response{Success: true, Data: subs})
	}
}

func (h *Handler) getHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) || (err == nil && sub.FormID != chi.URLParam(r, "formID")) {
			h.writeJSON(w, http.StatusNotFound, response{Message: "submission not found"})
			return
		}
		if err != nil {
			h.logger.WithError(err).Error("failed to load submission")
			h.writeJSON(w, http.StatusInternalServerError, response{Message: "submission could not be loaded"})
			return
		}
		h.writeJSON(w, http.StatusOK, response{Success: true, Data: sub})
	}
}

func (h *Handler) labelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := localize.Category(chi.URLParam(r, "category"))
		known := false
		for _, c := range localize.Categories() {
			if c == category {
				known = true
				break
			}
		}
		if !known {
			h.writeJSON(w, http.StatusNotFound, response{Message: "unknown label category"})
			return
		}

		var resolver localize.Resolver
		if h.texts != nil {
			resolver = h.texts.Locale(r.URL.Query().Get("lang"))
		}
		name := chi.URLParam(r, "name")
		label := localize.New(resolver).Name(category, name)
		h.writeJSON(w, http.StatusOK, response{Success: true, Data: map[string]string{
			"key":   localize.Key(category, name),
			"label": label,
		}})
	}
}

func (h *Handler) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger, ok := h.store.(Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"error":  err.Error(),
				})
				return
			}
		}
		h.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   h.now().Format(time.RFC3339),
		})
	}
}

// decode maps the multipart entries onto the definition. Checkbox lists keep
// every value; other kinds keep the first. Blank entries are dropped.
func (h *Handler) decode(def model.FormDefinition, form *multipart.Form) (*Submission, error) {
	sub := &Submission{Values: map[string]any{}}
	known := make(map[string]struct{}, len(def.Fields))

	for _, field := range def.Fields {
		known[field.ID] = struct{}{}
		if field.Kind == model.FieldKindUpload {
			for _, header := range form.File[field.ID] {
				stored, err := readFile(field.ID, header)
				if err != nil {
					return nil, err
				}
				sub.Files = append(sub.Files, stored)
			}
			continue
		}

		var values []string
		for _, v := range form.Value[field.ID] {
			if strings.TrimSpace(v) != "" {
				values = append(values, v)
			}
		}
		switch {
		case len(values) == 0:
		case field.Kind == model.FieldKindCheckboxList:
			sub.Values[field.ID] = values
		default:
			sub.Values[field.ID] = values[0]
		}
	}

	for key, values := range form.Value {
		if _, ok := known[key]; ok || len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}
		if sub.Extra == nil {
			sub.Extra = map[string]string{}
		}
		sub.Extra[key] = values[0]
	}
	return sub, nil
}

func readFile(field string, header *multipart.FileHeader) (StoredFile, error) {
	file, err := header.Open()
	if err != nil {
		return StoredFile{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return StoredFile{}, err
	}
	return StoredFile{
		Field:       field,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// validationValues exposes uploads to the validator so required upload
// fields are satisfied by a file part.
func validationValues(sub *Submission) map[string]any {
	values := make(map[string]any, len(sub.Values)+len(sub.Files))
	for k, v := range sub.Values {
		values[k] = v
	}
	for _, file := range sub.Files {
		values[file.Field] = file.Name
	}
	return values
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Warn("failed to write response")
	}
}
