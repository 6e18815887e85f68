package handlers

import (
	"net/http"

	"rfphub/internal/access"
	"rfphub/internal/apperr"
	"rfphub/internal/auth"
	"rfphub/models"
)

// CreateResponseHandler handles POST /api/responses. Responder role required;
// one response per (rfp, responder) pair. The payload may create the response
// already submitted, in which case the RFP's counter is bumped immediately.
func (h *Handler) CreateResponseHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	if !access.CanRespond(actor) {
		h.writeError(w, apperr.New(apperr.RoleNotPermitted, "only responders may create responses"))
		return
	}

	var input struct {
		RFPID           int      `json:"rfpId"`
		Proposal        string   `json:"proposal"`
		ProposedBudget  *float64 `json:"proposedBudget"`
		Timeline        string   `json:"timeline"`
		Methodology     string   `json:"methodology"`
		TeamDetails     string   `json:"teamDetails"`
		AdditionalNotes string   `json:"additionalNotes"`
		Status          string   `json:"status"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	if input.RFPID <= 0 {
		h.writeError(w, apperr.New(apperr.Validation, "rfpId is required"))
		return
	}
	if input.Proposal == "" {
		h.writeError(w, apperr.New(apperr.Validation, "proposal is required"))
		return
	}
	if input.Status == "" {
		input.Status = models.ResponseDraft
	}
	if input.Status != models.ResponseDraft && input.Status != models.ResponseSubmitted {
		h.writeError(w, apperr.New(apperr.Validation, "status must be draft or submitted on creation"))
		return
	}

	resp := &models.Response{
		RFPID:           input.RFPID,
		SubmittedBy:     actor.ID,
		Proposal:        input.Proposal,
		ProposedBudget:  input.ProposedBudget,
		Timeline:        input.Timeline,
		Methodology:     input.Methodology,
		TeamDetails:     input.TeamDetails,
		AdditionalNotes: input.AdditionalNotes,
		Status:          input.Status,
	}
	if err := h.Store.CreateResponse(r.Context(), resp); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// MyResponsesHandler handles GET /api/responses/my with an optional status
// filter.
func (h *Handler) MyResponsesHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	params := parsePaginationParams(r)

	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidResponseStatus(status) {
		h.writeError(w, apperr.New(apperr.Validation, "unknown status"))
		return
	}

	responses, err := h.Store.ListUserResponses(r.Context(), actor.ID, status, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responses)
}

// GetResponseHandler handles GET /api/responses/{responseID}: visible to the
// response's author and the parent RFP's owner.
func (h *Handler) GetResponseHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	id, err := urlID(r, "responseID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.Store.GetResponse(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rfp, err := h.Store.GetRFP(r.Context(), resp.RFPID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !access.CanViewResponse(resp, rfp, actor) {
		h.writeError(w, apperr.New(apperr.Forbidden, "you may not view this response"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// getOwnedResponse loads a Response and enforces the responder role gate and
// ownership for a mutating action.
func (h *Handler) getOwnedResponse(r *http.Request) (*models.Response, error) {
	actor := auth.UserFrom(r.Context())
	if !access.CanRespond(actor) {
		return nil, apperr.New(apperr.RoleNotPermitted, "only responders may manage responses")
	}

	id, err := urlID(r, "responseID")
	if err != nil {
		return nil, err
	}
	resp, err := h.Store.GetResponse(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !access.CanMutateResponse(resp, actor) {
		return nil, apperr.New(apperr.Forbidden, "you do not own this response")
	}
	return resp, nil
}

// UpdateResponseHandler handles PUT /api/responses/{responseID}. Permitted
// until the response reaches a terminal status; the only status change a
// responder may make here is draft to submitted.
func (h *Handler) UpdateResponseHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getOwnedResponse(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if models.ResponseTerminal(resp.Status) {
		h.writeError(w, apperr.Newf(apperr.InvalidState, "a %s response can no longer be updated", resp.Status))
		return
	}

	var input struct {
		Proposal        *string  `json:"proposal"`
		ProposedBudget  *float64 `json:"proposedBudget"`
		Timeline        *string  `json:"timeline"`
		Methodology     *string  `json:"methodology"`
		TeamDetails     *string  `json:"teamDetails"`
		AdditionalNotes *string  `json:"additionalNotes"`
		Status          *string  `json:"status"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	fromStatus := resp.Status
	if input.Proposal != nil {
		if *input.Proposal == "" {
			h.writeError(w, apperr.New(apperr.Validation, "proposal must not be empty"))
			return
		}
		resp.Proposal = *input.Proposal
	}
	if input.ProposedBudget != nil {
		resp.ProposedBudget = input.ProposedBudget
	}
	if input.Timeline != nil {
		resp.Timeline = *input.Timeline
	}
	if input.Methodology != nil {
		resp.Methodology = *input.Methodology
	}
	if input.TeamDetails != nil {
		resp.TeamDetails = *input.TeamDetails
	}
	if input.AdditionalNotes != nil {
		resp.AdditionalNotes = *input.AdditionalNotes
	}
	if input.Status != nil && *input.Status != resp.Status {
		if !models.ValidResponseStatus(*input.Status) {
			h.writeError(w, apperr.New(apperr.Validation, "unknown status"))
			return
		}
		if fromStatus != models.ResponseDraft || *input.Status != models.ResponseSubmitted {
			h.writeError(w, apperr.Newf(apperr.InvalidState, "cannot move response from %s to %s", fromStatus, *input.Status))
			return
		}
		resp.Status = *input.Status
	}

	if err := h.Store.UpdateResponse(r.Context(), resp, fromStatus); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SubmitResponseHandler handles POST /api/responses/{responseID}/submit.
func (h *Handler) SubmitResponseHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getOwnedResponse(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	submitted, err := h.Store.SubmitResponse(r.Context(), resp.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitted)
}

// ReviewResponseHandler handles POST /api/responses/{responseID}/review.
// Only the parent RFP's owner may review; the outcome is approved, rejected,
// or under_review.
func (h *Handler) ReviewResponseHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())
	if !access.CanReview(actor) {
		h.writeError(w, apperr.New(apperr.RoleNotPermitted, "only requesters may review responses"))
		return
	}

	id, err := urlID(r, "responseID")
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp, err := h.Store.GetResponse(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rfp, err := h.Store.GetRFP(r.Context(), resp.RFPID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !access.CanReviewResponse(rfp, actor) {
		h.writeError(w, apperr.New(apperr.Forbidden, "only the RFP owner may review its responses"))
		return
	}

	var input struct {
		Outcome       string `json:"outcome"`
		ReviewerNotes string `json:"reviewerNotes"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	switch input.Outcome {
	case models.ResponseApproved, models.ResponseRejected, models.ResponseUnderReview:
	default:
		h.writeError(w, apperr.New(apperr.Validation, "outcome must be approved, rejected, or under_review"))
		return
	}

	reviewed, err := h.Store.ReviewResponse(r.Context(), resp.ID, input.Outcome, input.ReviewerNotes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviewed)
}

// DeleteResponseHandler handles DELETE /api/responses/{responseID}. Only
// drafts may go; the RFP's counter is untouched. The response's document
// records go with it, then the blobs, best effort.
func (h *Handler) DeleteResponseHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getOwnedResponse(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	keys, err := h.Store.DeleteResponse(r.Context(), resp.ID)
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
