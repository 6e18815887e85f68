package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"

	"rfphub/internal/access"
	"rfphub/internal/apperr"
	"rfphub/internal/auth"
	"rfphub/models"
)

func formInt(r *http.Request, name string) (*int, error) {
	s := r.FormValue(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return nil, apperr.Newf(apperr.Validation, "invalid %s", name)
	}
	return &v, nil
}

// UploadDocumentHandler handles POST /api/documents/upload (multipart form:
// file, documentType, description, rfpId or responseId). The blob is stored
// first; if the metadata write then fails, the blob is deleted so no
// unlinked document survives.
func (h *Handler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid or oversized multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "file is required"))
		return
	}
	defer file.Close()

	docType := r.FormValue("documentType")
	rfpID, err := formInt(r, "rfpId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	responseID, err := formInt(r, "responseId")
	if err != nil {
		h.writeError(w, err)
		return
	}

	// The document type dictates its single governing parent.
	switch docType {
	case models.DocTypeRFP:
		if rfpID == nil || responseID != nil {
			h.writeError(w, apperr.New(apperr.Validation, "rfp_document requires rfpId and no responseId"))
			return
		}
	case models.DocTypeResponse:
		if responseID == nil || rfpID != nil {
			h.writeError(w, apperr.New(apperr.Validation, "response_document requires responseId and no rfpId"))
			return
		}
	case models.DocTypeAttachment:
		if (rfpID == nil) == (responseID == nil) {
			h.writeError(w, apperr.New(apperr.Validation, "attachment requires exactly one of rfpId or responseId"))
			return
		}
	default:
		h.writeError(w, apperr.New(apperr.Validation, "documentType must be rfp_document, response_document, or attachment"))
		return
	}

	if rfpID != nil {
		rfp, err := h.Store.GetRFP(r.Context(), *rfpID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if !access.CanUploadTo(rfp.CreatedBy, actor) {
			h.writeError(w, apperr.New(apperr.Forbidden, "only the RFP owner may upload to it"))
			return
		}
	} else {
		resp, err := h.Store.GetResponse(r.Context(), *responseID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if !access.CanUploadTo(resp.SubmittedBy, actor) {
			h.writeError(w, apperr.New(apperr.Forbidden, "only the response owner may upload to it"))
			return
		}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// No entity lock is held while the bytes stream to the blob store; the
	// metadata write below is a short transaction after the blob is durable.
	key, err := h.Blobs.Put(r.Context(), file, header.Size, contentType)
	if err != nil {
		h.Log.Error("blob store failed", "err", err)
		h.writeError(w, apperr.New(apperr.Storage, "failed to store file"))
		return
	}

	doc := &models.Document{
		Filename:         path.Base(key),
		OriginalFilename: header.Filename,
		FileSize:         header.Size,
		ContentType:      contentType,
		DocumentType:     docType,
		Description:      r.FormValue("description"),
		RFPID:            rfpID,
		ResponseID:       responseID,
		UploadedBy:       actor.ID,
		StorageKey:       key,
	}
	if err := h.Store.AttachDocument(r.Context(), doc); err != nil {
		// Compensating delete: the record rolled back, so the blob must go too.
		if derr := h.Blobs.Delete(r.Context(), key); derr != nil {
			h.Log.Warn("compensating blob delete failed, blob orphaned", "key", key, "err", derr)
		}
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// canAccessDocument: the uploader and the owner of the governing parent.
func (h *Handler) canAccessDocument(r *http.Request, doc *models.Document, actor *models.User) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if actor.ID == doc.UploadedBy {
		return true, nil
	}
	if doc.RFPID != nil {
		rfp, err := h.Store.GetRFP(r.Context(), *doc.RFPID)
		if err != nil {
			return false, err
		}
		return rfp.CreatedBy == actor.ID, nil
	}
	if doc.ResponseID != nil {
		resp, err := h.Store.GetResponse(r.Context(), *doc.ResponseID)
		if err != nil {
			return false, err
		}
		return resp.SubmittedBy == actor.ID, nil
	}
	return false, nil
}

func (h *Handler) getAccessibleDocument(w http.ResponseWriter, r *http.Request) *models.Document {
	id, err := urlID(r, "documentID")
	if err != nil {
		h.writeError(w, err)
		return nil
	}

	doc, err := h.Store.GetDocument(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return nil
	}

	ok, err := h.canAccessDocument(r, doc, auth.UserFrom(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return nil
	}
	if !ok {
		h.writeError(w, apperr.New(apperr.Forbidden, "you may not access this document"))
		return nil
	}
	return doc
}

// GetDocumentHandler handles GET /api/documents/{documentID}.
func (h *Handler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	doc := h.getAccessibleDocument(w, r)
	if doc == nil {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DownloadDocumentHandler handles GET /api/documents/{documentID}/download,
// streaming the blob.
func (h *Handler) DownloadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	doc := h.getAccessibleDocument(w, r)
	if doc == nil {
		return
	}

	rc, err := h.Blobs.Get(r.Context(), doc.StorageKey)
	if err != nil {
		h.Log.Error("blob read failed", "key", doc.StorageKey, "err", err)
		h.writeError(w, apperr.New(apperr.Storage, "failed to read file"))
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))
	io.Copy(w, rc)
}

// DeleteDocumentHandler handles DELETE /api/documents/{documentID}. The
// metadata row and the parent link go first; a blob-deletion failure is
// logged and swallowed.
func (h *Handler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	doc := h.getAccessibleDocument(w, r)
	if doc == nil {
		return
	}

	if err := h.Store.DetachDocument(r.Context(), doc); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.Blobs.Delete(r.Context(), doc.StorageKey); err != nil {
		h.Log.Warn("blob delete failed, blob orphaned", "key", doc.StorageKey, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
