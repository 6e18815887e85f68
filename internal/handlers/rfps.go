package handlers

import (
	"net/http"
	"time"

	"rfphub/db"
	"rfphub/internal/access"
	"rfphub/internal/apperr"
	"rfphub/internal/auth"
	"rfphub/models"
)

func validateBudgets(min, max *float64) error {
	if min != nil && *min < 0 || max != nil && *max < 0 {
		return apperr.New(apperr.Validation, "budget must be non-negative")
	}
	if min != nil && max != nil && *min > *max {
		return apperr.New(apperr.Validation, "budgetMin must not exceed budgetMax")
	}
	return nil
}

// CreateRFPHandler handles POST /api/rfps. Requester role required; the new
// RFP starts as a draft owned by the caller.
func (h *Handler) CreateRFPHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	if !access.CanCreateRFP(actor) {
		h.writeError(w, apperr.New(apperr.RoleNotPermitted, "only requesters may create RFPs"))
		return
	}

	var input struct {
		Title              string    `json:"title"`
		Description        string    `json:"description"`
		Category           string    `json:"category"`
		BudgetMin          *float64  `json:"budgetMin"`
		BudgetMax          *float64  `json:"budgetMax"`
		Deadline           time.Time `json:"deadline"`
		Requirements       []string  `json:"requirements"`
		EvaluationCriteria []string  `json:"evaluationCriteria"`
		TermsAndConditions string    `json:"termsAndConditions"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	if input.Title == "" || input.Description == "" {
		h.writeError(w, apperr.New(apperr.Validation, "title and description are required"))
		return
	}
	if !input.Deadline.After(time.Now()) {
		h.writeError(w, apperr.New(apperr.Validation, "deadline must be in the future"))
		return
	}
	if err := validateBudgets(input.BudgetMin, input.BudgetMax); err != nil {
		h.writeError(w, err)
		return
	}

	rfp := &models.RFP{
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		BudgetMin:    input.BudgetMin,
		BudgetMax:    input.BudgetMax,
		Deadline:     input.Deadline,
		Requirements: input.Requirements,
		Criteria:     input.EvaluationCriteria,
		Terms:        input.TermsAndConditions,
		Status:       models.RFPDraft,
		CreatedBy:    actor.ID,
	}
	if rfp.Requirements == nil {
		rfp.Requirements = []string{}
	}
	if rfp.Criteria == nil {
		rfp.Criteria = []string{}
	}

	if err := h.Store.CreateRFP(r.Context(), rfp); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rfp)
}

// ListRFPsHandler handles GET /api/rfps with optional identity. Responders
// see only published RFPs whose deadline has not passed; requesters also see
// their own drafts; anonymous callers see everything past draft.
func (h *Handler) ListRFPsHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	params := parsePaginationParams(r)

	filter := db.RFPFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    params.Limit,
		Offset:   params.Offset,
	}
	if actor != nil {
		filter.ViewerID = actor.ID
		filter.ResponderView = actor.Role == models.RoleResponder
	}

	rfps, err := h.Store.ListRFPs(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rfps)
}

// MyRFPsHandler handles GET /api/rfps/my.
func (h *Handler) MyRFPsHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	params := parsePaginationParams(r)

	rfps, err := h.Store.ListUserRFPs(r.Context(), actor.ID, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rfps)
}

// GetRFPHandler handles GET /api/rfps/{rfpID}. Drafts are visible to their
// owner only; expired published RFPs stay individually retrievable.
func (h *Handler) GetRFPHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "rfpID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	rfp, err := h.Store.GetRFP(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !access.CanViewRFP(rfp, auth.UserFrom(r.Context())) {
		h.writeError(w, apperr.New(apperr.Forbidden, "you may not view this RFP"))
		return
	}

	writeJSON(w, http.StatusOK, rfp)
}

// getOwnedRFP loads an RFP and enforces the role gate and ownership for a
// mutating action.
func (h *Handler) getOwnedRFP(r *http.Request) (*models.RFP, error) {
	actor := auth.UserFrom(r.Context())
	if actor.Role != models.RoleRequester {
		return nil, apperr.New(apperr.RoleNotPermitted, "only requesters may manage RFPs")
	}

	id, err := urlID(r, "rfpID")
	if err != nil {
		return nil, err
	}
	rfp, err := h.Store.GetRFP(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !access.CanMutateRFP(rfp, actor) {
		return nil, apperr.New(apperr.Forbidden, "you do not own this RFP")
	}
	return rfp, nil
}

// UpdateRFPHandler handles PUT /api/rfps/{rfpID}. Permitted only while the
// RFP is draft or published; a status set through the payload must follow the
// transition table. The write is conditional on the status read here, so a
// concurrent publish or close makes it fail rather than be overwritten.
func (h *Handler) UpdateRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfp, err := h.getOwnedRFP(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rfp.Status != models.RFPDraft && rfp.Status != models.RFPPublished {
		h.writeError(w, apperr.Newf(apperr.InvalidState, "a %s rfp can no longer be updated", rfp.Status))
		return
	}
	fromStatus := rfp.Status

	var input struct {
		Title              *string    `json:"title"`
		Description        *string    `json:"description"`
		Category           *string    `json:"category"`
		BudgetMin          *float64   `json:"budgetMin"`
		BudgetMax          *float64   `json:"budgetMax"`
		Deadline           *time.Time `json:"deadline"`
		Requirements       []string   `json:"requirements"`
		EvaluationCriteria []string   `json:"evaluationCriteria"`
		TermsAndConditions *string    `json:"termsAndConditions"`
		Status             *string    `json:"status"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	if input.Title != nil {
		if *input.Title == "" {
			h.writeError(w, apperr.New(apperr.Validation, "title must not be empty"))
			return
		}
		rfp.Title = *input.Title
	}
	if input.Description != nil {
		rfp.Description = *input.Description
	}
	if input.Category != nil {
		rfp.Category = *input.Category
	}
	if input.BudgetMin != nil {
		rfp.BudgetMin = input.BudgetMin
	}
	if input.BudgetMax != nil {
		rfp.BudgetMax = input.BudgetMax
	}
	if err := validateBudgets(rfp.BudgetMin, rfp.BudgetMax); err != nil {
		h.writeError(w, err)
		return
	}
	if input.Deadline != nil {
		if !input.Deadline.After(time.Now()) {
			h.writeError(w, apperr.New(apperr.Validation, "deadline must be in the future"))
			return
		}
		rfp.Deadline = *input.Deadline
	}
	if input.Requirements != nil {
		rfp.Requirements = input.Requirements
	}
	if input.EvaluationCriteria != nil {
		rfp.Criteria = input.EvaluationCriteria
	}
	if input.TermsAndConditions != nil {
		rfp.Terms = *input.TermsAndConditions
	}
	if input.Status != nil && *input.Status != rfp.Status {
		if !models.ValidRFPStatus(*input.Status) {
			h.writeError(w, apperr.New(apperr.Validation, "unknown status"))
			return
		}
		if !models.CanRFPTransition(rfp.Status, *input.Status) {
			h.writeError(w, apperr.Newf(apperr.InvalidState, "cannot move rfp from %s to %s", rfp.Status, *input.Status))
			return
		}
		rfp.Status = *input.Status
	}

	if err := h.Store.UpdateRFP(r.Context(), rfp, fromStatus); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rfp)
}

// PublishRFPHandler handles POST /api/rfps/{rfpID}/publish. Re-publishing a
// published RFP is rejected, not idempotent.
func (h *Handler) PublishRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfp, err := h.getOwnedRFP(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	published, err := h.Store.PublishRFP(r.Context(), rfp.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, published)
}

// CloseRFPHandler handles POST /api/rfps/{rfpID}/close.
func (h *Handler) CloseRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfp, err := h.getOwnedRFP(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	closed, err := h.Store.CloseRFP(r.Context(), rfp.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, closed)
}

// DeleteRFPHandler handles DELETE /api/rfps/{rfpID}. Only drafts may go;
// the RFP's document records go with it, then the blobs, best effort.
func (h *Handler) DeleteRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfp, err := h.getOwnedRFP(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	keys, err := h.Store.DeleteRFP(r.Context(), rfp.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	for _, key := range keys {
		if derr := h.Blobs.Delete(r.Context(), key); derr != nil {
			h.Log.Warn("blob delete failed, blob orphaned", "key", key, "err", derr)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRFPResponsesHandler handles GET /api/rfps/{rfpID}/responses for the
// RFP's owner.
func (h *Handler) ListRFPResponsesHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	id, err := urlID(r, "rfpID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	rfp, err := h.Store.GetRFP(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !access.CanMutateRFP(rfp, actor) {
		h.writeError(w, apperr.New(apperr.Forbidden, "only the RFP owner may list its responses"))
		return
	}

	params := parsePaginationParams(r)
	responses, err := h.Store.ListRFPResponses(r.Context(), rfp.ID, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responses)
}

// ListRFPDocumentsHandler handles GET /api/rfps/{rfpID}/documents for the
// RFP's owner.
func (h *Handler) ListRFPDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	id, err := urlID(r, "rfpID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	rfp, err := h.Store.GetRFP(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !access.CanUploadTo(rfp.CreatedBy, actor) {
		h.writeError(w, apperr.New(apperr.Forbidden, "only the RFP owner may list its documents"))
		return
	}

	docs, err := h.Store.ListDocuments(r.Context(), rfp.DocumentIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}
