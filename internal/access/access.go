// Package access implements authorization as pure predicates over plain
// entities, with no storage dependency. Handlers translate a false result
// into apperr.Forbidden (ownership) or apperr.RoleNotPermitted (role gate).
package access

import "rfphub/models"

// CanViewRFP reports whether actor may fetch the RFP directly.
// Anything past draft is publicly visible; a draft is visible to its owner only.
// Listing-level filtering for responders (published and unexpired) is applied
// by the storage query, not here: an expired RFP a responder addresses by id
// is still viewable.
func CanViewRFP(rfp *models.RFP, actor *models.User) bool {
	if rfp.Status != models.RFPDraft {
		return true
	}
	return actor != nil && actor.ID == rfp.CreatedBy
}

// CanMutateRFP reports whether actor owns the RFP. Role is not consulted here.
func CanMutateRFP(rfp *models.RFP, actor *models.User) bool {
	return actor != nil && actor.ID == rfp.CreatedBy
}

// CanMutateResponse reports whether actor owns the Response.
func CanMutateResponse(resp *models.Response, actor *models.User) bool {
	return actor != nil && actor.ID == resp.SubmittedBy
}

// CanReviewResponse reports whether actor owns the Response's parent RFP.
func CanReviewResponse(rfp *models.RFP, actor *models.User) bool {
	return actor != nil && actor.ID == rfp.CreatedBy
}

// CanViewResponse reports whether actor may fetch the Response: its author
// or the parent RFP's owner.
func CanViewResponse(resp *models.Response, rfp *models.RFP, actor *models.User) bool {
	if actor == nil {
		return false
	}
	return actor.ID == resp.SubmittedBy || actor.ID == rfp.CreatedBy
}

// CanUploadTo reports whether actor owns the parent entity identified by its
// owner field (RFP.CreatedBy or Response.SubmittedBy).
func CanUploadTo(ownerID int, actor *models.User) bool {
	return actor != nil && actor.ID == ownerID
}

// Role gates, separate from ownership.

// CanCreateRFP: authoring RFPs requires the requester role.
func CanCreateRFP(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleRequester
}

// CanRespond: creating, updating, deleting, or submitting a Response requires
// the responder role.
func CanRespond(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleResponder
}

// CanReview: reviewing a Response requires the requester role.
func CanReview(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleRequester
}
