package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rfphub/internal/apperr"
	"rfphub/models"
)

// AttachDocument persists a Document record and appends its id to the parent
// entity's document_ids in one transaction. array_append keeps the set update
// atomic; no document list is ever read, mutated in memory, and rewritten.
// On any failure the record insert rolls back; the caller is responsible for
// the compensating blob delete.
func (s *Storage) AttachDocument(ctx context.Context, d *models.Document) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO document
            (filename, original_filename, file_size, content_type, document_type,
             description, rfp_id, response_id, uploaded_by, storage_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		d.Filename, d.OriginalFilename, d.FileSize, d.ContentType, d.DocumentType,
		d.Description, d.RFPID, d.ResponseID, d.UploadedBy, d.StorageKey).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return err
	}

	var res sql.Result
	switch {
	case d.RFPID != nil:
		res, err = tx.ExecContext(ctx,
			`UPDATE rfp SET document_ids = array_append(document_ids, $1), updated_at = NOW() WHERE id = $2`,
			d.ID, *d.RFPID)
	case d.ResponseID != nil:
		res, err = tx.ExecContext(ctx,
			`UPDATE response SET document_ids = array_append(document_ids, $1), updated_at = NOW() WHERE id = $2`,
			d.ID, *d.ResponseID)
	default:
		return apperr.New(apperr.Validation, "document has no parent")
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "parent entity not found")
	}
	return tx.Commit()
}

func (s *Storage) GetDocument(ctx context.Context, id int) (*models.Document, error) {
	d := &models.Document{}
	query := `SELECT * FROM document WHERE id=$1`
	err := s.db.GetContext(ctx, d, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "document not found")
	}
	return d, err
}

func (s *Storage) ListDocuments(ctx context.Context, ids []int64) ([]models.Document, error) {
	docs := []models.Document{}
	if len(ids) == 0 {
		return docs, nil
	}
	query := `SELECT * FROM document WHERE id = ANY($1) ORDER BY id ASC`
	err := s.db.SelectContext(ctx, &docs, query, pq.Int64Array(ids))
	return docs, err
}

// DetachDocument removes the document id from its parent's set (atomic
// array_remove) and deletes the metadata record, in one transaction. Blob
// deletion is the caller's concern and happens afterwards: an orphaned blob
// is preferable to an undeletable metadata row.
func (s *Storage) DetachDocument(ctx context.Context, d *models.Document) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch {
	case d.RFPID != nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE rfp SET document_ids = array_remove(document_ids, $1), updated_at = NOW() WHERE id = $2`,
			d.ID, *d.RFPID)
	case d.ResponseID != nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE response SET document_ids = array_remove(document_ids, $1), updated_at = NOW() WHERE id = $2`,
			d.ID, *d.ResponseID)
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM document WHERE id = $1`, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "document not found")
	}
	return tx.Commit()
}
