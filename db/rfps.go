package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rfphub/internal/apperr"
	"rfphub/models"
)

func (s *Storage) CreateRFP(ctx context.Context, r *models.RFP) error {
	query := `
        INSERT INTO rfp
            (title, description, category, budget_min, budget_max, deadline,
             requirements, evaluation_criteria, terms_and_conditions, status, created_by)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, response_count, document_ids, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		r.Title, r.Description, r.Category, r.BudgetMin, r.BudgetMax, r.Deadline,
		r.Requirements, r.Criteria, r.Terms, r.Status, r.CreatedBy).
		Scan(&r.ID, &r.ResponseCount, &r.DocumentIDs, &r.CreatedAt, &r.UpdatedAt)
}

func (s *Storage) GetRFP(ctx context.Context, id int) (*models.RFP, error) {
	r := &models.RFP{}
	query := `SELECT * FROM rfp WHERE id=$1`
	err := s.db.GetContext(ctx, r, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "rfp not found")
	}
	return r, err
}

// RFPFilter narrows ListRFPs. ViewerID 0 means anonymous. When ResponderView
// is set, only published RFPs whose deadline has not passed are returned
// (draft and expired RFPs are filtered from responder-facing listings).
type RFPFilter struct {
	Category      string
	ViewerID      int
	ResponderView bool
	Limit         int
	Offset        int
}

func (s *Storage) ListRFPs(ctx context.Context, f RFPFilter) ([]models.RFP, error) {
	query := `SELECT * FROM rfp`
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var where string
	switch {
	case f.ResponderView:
		where = " WHERE status='published' AND deadline > NOW()"
	case f.ViewerID > 0:
		where = fmt.Sprintf(" WHERE (status <> 'draft' OR created_by = %s)", next(f.ViewerID))
	default:
		where = " WHERE status <> 'draft'"
	}
	if f.Category != "" {
		where += fmt.Sprintf(" AND category = %s", next(f.Category))
	}

	query += where + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)

	rfps := []models.RFP{}
	if err := s.db.SelectContext(ctx, &rfps, query, args...); err != nil {
		return nil, err
	}
	return rfps, nil
}

func (s *Storage) ListUserRFPs(ctx context.Context, userID, limit, offset int) ([]models.RFP, error) {
	query := `
        SELECT * FROM rfp
        WHERE created_by = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rfps := []models.RFP{}
	err := s.db.SelectContext(ctx, &rfps, query, userID, limit, offset)
	return rfps, err
}

// UpdateRFP applies field changes conditionally on the status the caller
// read (no lost updates): a stale write cannot undo a concurrent publish or
// close. A status set to published stamps published_at when it is still
// absent.
func (s *Storage) UpdateRFP(ctx context.Context, r *models.RFP, fromStatus string) error {
	query := `
        UPDATE rfp
        SET title=$1, description=$2, category=$3, budget_min=$4, budget_max=$5,
            deadline=$6, requirements=$7, evaluation_criteria=$8,
            terms_and_conditions=$9, status=$10,
            published_at = CASE WHEN $10 = 'published' THEN COALESCE(published_at, NOW())
                                ELSE published_at END,
            updated_at = NOW()
        WHERE id=$11 AND status=$12
        RETURNING published_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		r.Title, r.Description, r.Category, r.BudgetMin, r.BudgetMax, r.Deadline,
		r.Requirements, r.Criteria, r.Terms, r.Status, r.ID, fromStatus).
		Scan(&r.PublishedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s.classifyRFP(ctx, r.ID, "rfp can no longer be updated")
	}
	return err
}

// PublishRFP moves a draft RFP to published and stamps published_at, as one
// compare-and-swap on the current status.
func (s *Storage) PublishRFP(ctx context.Context, id int) (*models.RFP, error) {
	r := &models.RFP{}
	query := `
        UPDATE rfp
        SET status='published', published_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='draft'
        RETURNING *`
	err := s.db.GetContext(ctx, r, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.classifyRFP(ctx, id, "only a draft rfp can be published")
	}
	return r, err
}

// CloseRFP moves a published RFP to closed.
func (s *Storage) CloseRFP(ctx context.Context, id int) (*models.RFP, error) {
	r := &models.RFP{}
	query := `
        UPDATE rfp
        SET status='closed', updated_at=NOW()
        WHERE id=$1 AND status='published'
        RETURNING *`
	err := s.db.GetContext(ctx, r, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.classifyRFP(ctx, id, "only a published rfp can be closed")
	}
	return r, err
}

// DeleteRFP removes a draft RFP together with its document records, in one
// transaction so the document FK cannot block the delete. It returns the
// blob keys of the removed documents for the caller's best-effort cleanup.
// Anything past draft is refused.
func (s *Storage) DeleteRFP(ctx context.Context, id int) ([]string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	keys := []string{}
	if err := tx.SelectContext(ctx, &keys,
		`SELECT storage_key FROM document WHERE rfp_id=$1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM document WHERE rfp_id=$1`, id); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM rfp WHERE id=$1 AND status='draft'`, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, s.classifyRFP(ctx, id, "only a draft rfp can be deleted")
	}
	return keys, tx.Commit()
}

// classifyRFP distinguishes "absent" from "present but in the wrong state"
// after a conditional write matched no row.
func (s *Storage) classifyRFP(ctx context.Context, id int, msg string) error {
	var status string
	err := s.db.GetContext(ctx, &status, `SELECT status FROM rfp WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, "rfp not found")
	}
	if err != nil {
		return err
	}
	return apperr.Newf(apperr.InvalidState, "%s (current status: %s)", msg, status)
}
