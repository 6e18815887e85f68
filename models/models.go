package models

import (
	"time"

	"github.com/lib/pq"
)

// User roles. Role is fixed at registration.
const (
	RoleRequester = "requester"
	RoleResponder = "responder"
)

// RFP statuses.
const (
	RFPDraft     = "draft"
	RFPPublished = "published"
	RFPClosed    = "closed"
	RFPCancelled = "cancelled" // reserved for an administrative path, no exposed action reaches it
)

// Response statuses.
const (
	ResponseDraft       = "draft"
	ResponseSubmitted   = "submitted"
	ResponseUnderReview = "under_review"
	ResponseApproved    = "approved"
	ResponseRejected    = "rejected"
)

// Document types.
const (
	DocTypeRFP        = "rfp_document"
	DocTypeResponse   = "response_document"
	DocTypeAttachment = "attachment"
)

// rfpTransitions is the RFP state machine: current status -> reachable statuses.
var rfpTransitions = map[string][]string{
	RFPDraft:     {RFPPublished},
	RFPPublished: {RFPClosed},
	RFPClosed:    {},
	RFPCancelled: {},
}

// responseTransitions is the Response state machine.
var responseTransitions = map[string][]string{
	ResponseDraft:       {ResponseSubmitted},
	ResponseSubmitted:   {ResponseUnderReview, ResponseApproved, ResponseRejected},
	ResponseUnderReview: {ResponseApproved, ResponseRejected},
	ResponseApproved:    {},
	ResponseRejected:    {},
}

// CanRFPTransition reports whether an RFP may move from one status to another.
func CanRFPTransition(from, to string) bool {
	for _, s := range rfpTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanResponseTransition reports whether a Response may move from one status to another.
func CanResponseTransition(from, to string) bool {
	for _, s := range responseTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidRFPStatus reports whether s is a known RFP status.
func ValidRFPStatus(s string) bool {
	_, ok := rfpTransitions[s]
	return ok
}

// ValidResponseStatus reports whether s is a known Response status.
func ValidResponseStatus(s string) bool {
	_, ok := responseTransitions[s]
	return ok
}

// ResponseTerminal reports whether a Response status accepts no further edits.
func ResponseTerminal(s string) bool {
	return s == ResponseApproved || s == ResponseRejected
}

type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Organization string    `db:"organization" json:"organization,omitempty"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

type RFP struct {
	ID            int            `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	Category      string         `db:"category" json:"category"`
	BudgetMin     *float64       `db:"budget_min" json:"budgetMin,omitempty"`
	BudgetMax     *float64       `db:"budget_max" json:"budgetMax,omitempty"`
	Deadline      time.Time      `db:"deadline" json:"deadline"`
	Requirements  pq.StringArray `db:"requirements" json:"requirements"`
	Criteria      pq.StringArray `db:"evaluation_criteria" json:"evaluationCriteria"`
	Terms         string         `db:"terms_and_conditions" json:"termsAndConditions,omitempty"`
	Status        string         `db:"status" json:"status"`
	CreatedBy     int            `db:"created_by" json:"createdBy"`
	PublishedAt   *time.Time     `db:"published_at" json:"publishedAt,omitempty"`
	ResponseCount int            `db:"response_count" json:"responseCount"`
	DocumentIDs   pq.Int64Array  `db:"document_ids" json:"documentIds"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"-"`
}

type Response struct {
	ID              int           `db:"id" json:"id"`
	RFPID           int           `db:"rfp_id" json:"rfpId"`
	SubmittedBy     int           `db:"submitted_by" json:"submittedBy"`
	Proposal        string        `db:"proposal" json:"proposal"`
	ProposedBudget  *float64      `db:"proposed_budget" json:"proposedBudget,omitempty"`
	Timeline        string        `db:"timeline" json:"timeline,omitempty"`
	Methodology     string        `db:"methodology" json:"methodology,omitempty"`
	TeamDetails     string        `db:"team_details" json:"teamDetails,omitempty"`
	AdditionalNotes string        `db:"additional_notes" json:"additionalNotes,omitempty"`
	Status          string        `db:"status" json:"status"`
	SubmittedAt     *time.Time    `db:"submitted_at" json:"submittedAt,omitempty"`
	ReviewedAt      *time.Time    `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewerNotes   string        `db:"reviewer_notes" json:"reviewerNotes,omitempty"`
	DocumentIDs     pq.Int64Array `db:"document_ids" json:"documentIds"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `db:"updated_at" json:"-"`
}

type Document struct {
	ID               int       `db:"id" json:"id"`
	Filename         string    `db:"filename" json:"filename"`
	OriginalFilename string    `db:"original_filename" json:"originalFilename"`
	FileSize         int64     `db:"file_size" json:"fileSize"`
	ContentType      string    `db:"content_type" json:"contentType"`
	DocumentType     string    `db:"document_type" json:"documentType"`
	Description      string    `db:"description" json:"description,omitempty"`
	RFPID            *int      `db:"rfp_id" json:"rfpId,omitempty"`
	ResponseID       *int      `db:"response_id" json:"responseId,omitempty"`
	UploadedBy       int       `db:"uploaded_by" json:"uploadedBy"`
	StorageKey       string    `db:"storage_key" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
