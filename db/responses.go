package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"rfphub/internal/apperr"
	"rfphub/models"
)

// CreateResponse inserts a Response guarded by its parent RFP's state: the
// INSERT..SELECT touches a row only while the RFP is published and its
// deadline has not passed, so the precondition and the write share one
// snapshot. A duplicate (rfp, submitter) pair surfaces as Conflict. When the
// payload creates the response already submitted, the RFP's response counter
// is incremented in the same transaction.
func (s *Storage) CreateResponse(ctx context.Context, r *models.Response) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO response
            (rfp_id, submitted_by, proposal, proposed_budget, timeline, methodology,
             team_details, additional_notes, status, submitted_at)
        SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9,
               CASE WHEN $9 = 'submitted' THEN NOW() END
        FROM rfp
        WHERE rfp.id = $1 AND rfp.status = 'published' AND rfp.deadline > NOW()
        RETURNING id, submitted_at, document_ids, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		r.RFPID, r.SubmittedBy, r.Proposal, r.ProposedBudget, r.Timeline,
		r.Methodology, r.TeamDetails, r.AdditionalNotes, r.Status).
		Scan(&r.ID, &r.SubmittedAt, &r.DocumentIDs, &r.CreatedAt, &r.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.New(apperr.Conflict, "a response to this rfp already exists for this user")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return s.classifyParentRFP(ctx, r.RFPID)
	}
	if err != nil {
		return err
	}

	if r.Status == models.ResponseSubmitted {
		if err := incrementResponseCount(ctx, tx, r.RFPID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Storage) GetResponse(ctx context.Context, id int) (*models.Response, error) {
	r := &models.Response{}
	query := `SELECT * FROM response WHERE id=$1`
	err := s.db.GetContext(ctx, r, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "response not found")
	}
	return r, err
}

func (s *Storage) ListRFPResponses(ctx context.Context, rfpID, limit, offset int) ([]models.Response, error) {
	query := `
        SELECT * FROM response
        WHERE rfp_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	responses := []models.Response{}
	err := s.db.SelectContext(ctx, &responses, query, rfpID, limit, offset)
	return responses, err
}

func (s *Storage) ListUserResponses(ctx context.Context, userID int, status string, limit, offset int) ([]models.Response, error) {
	query := `SELECT * FROM response WHERE submitted_by = $1`
	args := []interface{}{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	responses := []models.Response{}
	err := s.db.SelectContext(ctx, &responses, query, args...)
	return responses, err
}

// UpdateResponse applies field changes conditionally on the status the caller
// read (no lost updates) and on the parent RFP still being open. A transition
// from draft into submitted stamps submitted_at and bumps the RFP's counter
// in the same transaction.
func (s *Storage) UpdateResponse(ctx context.Context, r *models.Response, fromStatus string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        UPDATE response
        SET proposal=$1, proposed_budget=$2, timeline=$3, methodology=$4,
            team_details=$5, additional_notes=$6, status=$7,
            submitted_at = CASE WHEN $7 <> 'draft' THEN COALESCE(submitted_at, NOW())
                                ELSE submitted_at END,
            updated_at = NOW()
        WHERE id=$8 AND status=$9
          AND EXISTS (
              SELECT 1 FROM rfp
              WHERE rfp.id = response.rfp_id
                AND rfp.status = 'published' AND rfp.deadline > NOW())
        RETURNING submitted_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		r.Proposal, r.ProposedBudget, r.Timeline, r.Methodology,
		r.TeamDetails, r.AdditionalNotes, r.Status, r.ID, fromStatus).
		Scan(&r.SubmittedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s.classifyResponseWrite(ctx, r.ID, fromStatus)
	}
	if err != nil {
		return err
	}

	if fromStatus == models.ResponseDraft && r.Status == models.ResponseSubmitted {
		if err := incrementResponseCount(ctx, tx, r.RFPID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SubmitResponse moves a draft Response to submitted. The status guard and
// the submitted_at IS NULL guard together make the counter increment fire at
// most once per response, regardless of which path submitted it first.
func (s *Storage) SubmitResponse(ctx context.Context, id int) (*models.Response, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	r := &models.Response{}
	query := `
        UPDATE response
        SET status='submitted', submitted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='draft' AND submitted_at IS NULL
          AND EXISTS (
              SELECT 1 FROM rfp
              WHERE rfp.id = response.rfp_id
                AND rfp.status = 'published' AND rfp.deadline > NOW())
        RETURNING *`
	err = tx.GetContext(ctx, r, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.classifyResponseWrite(ctx, id, models.ResponseDraft)
	}
	if err != nil {
		return nil, err
	}

	if err := incrementResponseCount(ctx, tx, r.RFPID); err != nil {
		return nil, err
	}
	return r, tx.Commit()
}

// ReviewResponse records the requester's decision. reviewed_at is stamped
// only for the terminal outcomes.
func (s *Storage) ReviewResponse(ctx context.Context, id int, outcome, notes string) (*models.Response, error) {
	r := &models.Response{}
	query := `
        UPDATE response
        SET status=$2, reviewer_notes=$3,
            reviewed_at = CASE WHEN $2 IN ('approved', 'rejected') THEN NOW()
                               ELSE reviewed_at END,
            updated_at=NOW()
        WHERE id=$1 AND status IN ('submitted', 'under_review')
        RETURNING *`
	err := s.db.GetContext(ctx, r, query, id, outcome, notes)
	if errors.Is(err, sql.ErrNoRows) {
		var status string
		gerr := s.db.GetContext(ctx, &status, `SELECT status FROM response WHERE id=$1`, id)
		if errors.Is(gerr, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "response not found")
		}
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.Newf(apperr.InvalidState, "only a submitted or under_review response can be reviewed (current status: %s)", status)
	}
	return r, err
}

// DeleteResponse removes a draft Response together with its document records,
// in one transaction so the document FK cannot block the delete. It returns
// the blob keys of the removed documents for the caller's best-effort
// cleanup. The counter is never decremented: a draft never incremented it.
func (s *Storage) DeleteResponse(ctx context.Context, id int) ([]string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	keys := []string{}
	if err := tx.SelectContext(ctx, &keys,
		`SELECT storage_key FROM document WHERE response_id=$1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM document WHERE response_id=$1`, id); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM response WHERE id=$1 AND status='draft'`, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var status string
		gerr := s.db.GetContext(ctx, &status, `SELECT status FROM response WHERE id=$1`, id)
		if errors.Is(gerr, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "response not found")
		}
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.Newf(apperr.InvalidState, "only a draft response can be deleted (current status: %s)", status)
	}
	return keys, tx.Commit()
}

// incrementResponseCount is an atomic in-place increment, never a
// read-modify-write of a loaded count.
func incrementResponseCount(ctx context.Context, tx *sqlx.Tx, rfpID int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rfp SET response_count = response_count + 1, updated_at = NOW() WHERE id = $1`, rfpID)
	return err
}

// classifyParentRFP explains why a write guarded by the parent RFP matched
// nothing: the RFP is gone, not published, or past its deadline.
func (s *Storage) classifyParentRFP(ctx context.Context, rfpID int) error {
	rfp, err := s.GetRFP(ctx, rfpID)
	if err != nil {
		return err
	}
	if rfp.Status != models.RFPPublished {
		return apperr.Newf(apperr.InvalidState, "rfp is not accepting responses (status: %s)", rfp.Status)
	}
	return apperr.New(apperr.ExpiredDeadline, "rfp deadline has passed")
}

// classifyResponseWrite explains why a guarded response write matched nothing.
func (s *Storage) classifyResponseWrite(ctx context.Context, id int, fromStatus string) error {
	r, err := s.GetResponse(ctx, id)
	if err != nil {
		return err
	}
	if r.Status != fromStatus {
		return apperr.Newf(apperr.InvalidState, "response status changed (current status: %s)", r.Status)
	}
	return s.classifyParentRFP(ctx, r.RFPID)
}
