package link

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkstore/internal/errx"
	"github.com/sundayezeilo/linkstore/internal/httpx"
)

// LinkResponse is the wire form of a link. The tombstone flag is never sent.
type LinkResponse struct {
	ID          string  `json:"id"`
	Slug        *string `json:"slug"`
	URI         string  `json:"uri"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// HTTPCreateLinkRequest is the JSON body of POST /links.
type HTTPCreateLinkRequest struct {
	Slug        *string `json:"slug"`
	URI         *string `json:"uri"`
	Description *string `json:"description"`
}

// HTTPUpdateLinkRequest is the JSON body of PUT /links/{id}. Each member may
// be absent (leave alone), null (clear; slug only) or a value (replace).
type HTTPUpdateLinkRequest struct {
	Slug        optional[string] `json:"slug"`
	URI         optional[string] `json:"uri"`
	Description optional[string] `json:"description"`
}

// optional records whether a JSON member was present and whether it was null.
// encoding/json leaves it untouched for absent members and calls
// UnmarshalJSON with the literal null for explicit nulls.
type optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Handler maps HTTP requests onto the link Service. It holds no business
// rules: every outcome is classified by the Service and only translated
// into a status code here.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

// ListLinks handles GET /links.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	const op = "link.handler.ListLinks"
	ctx := r.Context()

	links, err := h.service.List(ctx)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	resp := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, toResponse(l))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// CreateLink handles POST /links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	const op = "link.handler.CreateLink"
	ctx := r.Context()

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	nl, err := req.toNewLink()
	if err != nil {
		h.writeError(ctx, w, r, errx.E(op, errx.Invalid, err))
		return
	}

	l, err := h.service.Create(ctx, nl)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	h.requestLogger(r).InfoContext(ctx, "link created",
		"link_id", l.ID.String(),
		"has_slug", l.Slug != nil,
	)

	w.Header().Set("Location", "/links/"+l.ID.String())
	httpx.SetVersion(w, l.Version())
	httpx.WriteJSON(w, http.StatusCreated, toResponse(l))
}

// GetLink handles GET /links/{id}.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	const op = "link.handler.GetLink"
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		h.writeError(ctx, w, r, errx.E(op, errx.Invalid, err))
		return
	}

	res, err := h.service.Read(ctx, id)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	switch res.Outcome {
	case Found:
		httpx.SetVersion(w, res.Link.Version())
		httpx.WriteJSON(w, http.StatusOK, toResponse(res.Link))
	case Gone:
		// The token lets a client repeat a delete, which stays idempotent.
		httpx.SetVersion(w, res.Link.Version())
		httpx.WriteStatus(w, http.StatusGone)
	default:
		httpx.WriteStatus(w, http.StatusNotFound)
	}
}

// UpdateLink handles PUT /links/{id}. The If-Unmodified-Since header is
// mandatory.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	const op = "link.handler.UpdateLink"
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		h.writeError(ctx, w, r, errx.E(op, errx.Invalid, err))
		return
	}

	version, err := httpx.ParseVersion(r)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	// Tombstoned and unknown links are answered before the body is read.
	// The Service repeats this check and stays authoritative.
	cur, err := h.service.Read(ctx, id)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}
	switch cur.Outcome {
	case NotFound:
		httpx.WriteStatus(w, http.StatusNotFound)
		return
	case Gone:
		httpx.WriteStatus(w, http.StatusGone)
		return
	}

	req, err := httpx.DecodeJSON[HTTPUpdateLinkRequest](r)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	u, err := req.toUpdate()
	if err != nil {
		h.writeError(ctx, w, r, errx.E(op, errx.Invalid, err))
		return
	}

	res, err := h.service.Update(ctx, id, u, version)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	logger := h.requestLogger(r)
	switch res.Outcome {
	case Applied:
		logger.InfoContext(ctx, "link updated",
			"link_id", id.String(),
			"empty", u.IsEmpty(),
		)
		httpx.SetVersion(w, res.Link.Version())
		httpx.WriteJSON(w, http.StatusOK, toResponse(res.Link))
	case Conflict:
		logger.InfoContext(ctx, "stale version token on update",
			"link_id", id.String(),
			"version", httpx.FormatVersion(version),
		)
		httpx.WriteStatus(w, http.StatusPreconditionFailed)
	case Gone:
		httpx.WriteStatus(w, http.StatusGone)
	default:
		httpx.WriteStatus(w, http.StatusNotFound)
	}
}

// DeleteLink handles DELETE /links/{id}. The If-Unmodified-Since header is
// mandatory. Deleting an already tombstoned link with a valid token succeeds.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	const op = "link.handler.DeleteLink"
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		h.writeError(ctx, w, r, errx.E(op, errx.Invalid, err))
		return
	}

	version, err := httpx.ParseVersion(r)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	res, err := h.service.Remove(ctx, id, version)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	logger := h.requestLogger(r)
	switch res.Outcome {
	case Removed:
		logger.InfoContext(ctx, "link tombstoned", "link_id", id.String())
		httpx.WriteStatus(w, http.StatusNoContent)
	case Conflict:
		logger.InfoContext(ctx, "stale version token on delete",
			"link_id", id.String(),
			"version", httpx.FormatVersion(version),
		)
		httpx.WriteStatus(w, http.StatusPreconditionFailed)
	default:
		httpx.WriteStatus(w, http.StatusNotFound)
	}
}

// ResolveSlug handles GET /l/{slug} by redirecting to the live link's URI.
func (h *Handler) ResolveSlug(w http.ResponseWriter, r *http.Request) {
	const op = "link.handler.ResolveSlug"
	ctx := r.Context()

	slug := r.PathValue("slug")
	if slug == "" || len(slug) > MaxSlugLength {
		h.writeError(ctx, w, r, errx.E(op, errx.Invalid, errors.New("invalid slug")))
		return
	}

	res, err := h.service.Resolve(ctx, slug)
	if err != nil {
		h.writeError(ctx, w, r, errx.Wrap(op, err))
		return
	}

	switch res.Outcome {
	case Found:
		http.Redirect(w, r, res.Link.URI, http.StatusFound)
	case Gone:
		httpx.WriteStatus(w, http.StatusGone)
	default:
		httpx.WriteStatus(w, http.StatusNotFound)
	}
}

// writeError renders client-input errors with their reason and storage
// faults with a generic message.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	kind := errx.KindOf(err)
	status := httpx.ErrorKindToStatus(kind)
	code := httpx.ErrorKindToCode(kind)

	logger := h.requestLogger(r)
	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Invalid, errx.PreconditionRequired:
		logger.WarnContext(ctx, "rejected request", logAttrs...)
		httpx.WriteError(w, status, code, errx.Cause(err).Error(), nil)
	case errx.Unavailable:
		logger.ErrorContext(ctx, "storage unavailable", logAttrs...)
		httpx.WriteError(w, status, code, "links are unavailable at this time, please retry", nil)
	default:
		logger.ErrorContext(ctx, "unexpected error", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred", nil)
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid link id")
	}
	return id, nil
}

func (req HTTPCreateLinkRequest) toNewLink() (NewLink, error) {
	if req.URI == nil {
		return NewLink{}, errors.New("uri is required")
	}
	if req.Description == nil {
		return NewLink{}, errors.New("description is required")
	}

	nl := NewLink{
		Slug:        req.Slug,
		URI:         *req.URI,
		Description: *req.Description,
	}
	return nl, nl.Validate()
}

func (req HTTPUpdateLinkRequest) toUpdate() (LinkUpdate, error) {
	var u LinkUpdate

	switch {
	case !req.Slug.Present:
		u.Slug = KeepSlug()
	case req.Slug.Null:
		u.Slug = ClearSlug()
	default:
		u.Slug = SetSlug(req.Slug.Value)
	}

	if req.URI.Present {
		if req.URI.Null {
			return LinkUpdate{}, errors.New("uri cannot be null")
		}
		u.URI = &req.URI.Value
	}
	if req.Description.Present {
		if req.Description.Null {
			return LinkUpdate{}, errors.New("description cannot be null")
		}
		u.Description = &req.Description.Value
	}

	return u, u.Validate()
}

func toResponse(l Link) LinkResponse {
	return LinkResponse{
		ID:          l.ID.String(),
		Slug:        l.Slug,
		URI:         l.URI,
		Description: l.Description,
		CreatedAt:   l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
