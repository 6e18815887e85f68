package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rfphub/internal/apperr"
	"rfphub/internal/blob"
)

// Handler wires storage and the blob store into the HTTP surface.
type Handler struct {
	Store     StorageInterface
	Blobs     blob.Store
	Log       *slog.Logger
	JWTSecret []byte
	TokenTTL  time.Duration
	MaxUpload int64
}

func NewHandler(store StorageInterface, blobs blob.Store, log *slog.Logger, jwtSecret []byte, tokenTTL time.Duration, maxUpload int64) *Handler {
	return &Handler{
		Store:     store,
		Blobs:     blobs,
		Log:       log,
		JWTSecret: jwtSecret,
		TokenTTL:  tokenTTL,
		MaxUpload: maxUpload,
	}
}

// PingHandler answers "ok" as a liveness probe.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError surfaces taxonomy errors as structured responses with a kind and
// message; anything outside the taxonomy is logged and returned opaque.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		h.Log.Error("internal error", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
		return
	}
	writeJSON(w, statusForKind(e.Kind), errorBody{Error: string(e.Kind), Message: e.Message})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden, apperr.RoleNotPermitted:
		return http.StatusForbidden
	case apperr.InvalidState, apperr.ExpiredDeadline, apperr.Conflict:
		return http.StatusConflict
	case apperr.Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-capped JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.New(apperr.Validation, "invalid JSON body")
	}
	return nil
}

// urlID parses a positive integer chi URL parameter.
func urlID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.Validation, "invalid %s", name)
	}
	return id, nil
}

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams reads limit and offset from the query, with defaults
// and caps.
func parsePaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: 20, Offset: 0}

	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if o, err := strconv.Atoi(s); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}
