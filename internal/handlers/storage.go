package handlers

import (
	"context"

	"rfphub/db"
	"rfphub/models"
)

type StorageInterface interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateRFP(ctx context.Context, r *models.RFP) error
	GetRFP(ctx context.Context, id int) (*models.RFP, error)
	ListRFPs(ctx context.Context, f db.RFPFilter) ([]models.RFP, error)
	ListUserRFPs(ctx context.Context, userID, limit, offset int) ([]models.RFP, error)
	UpdateRFP(ctx context.Context, r *models.RFP, fromStatus string) error
	PublishRFP(ctx context.Context, id int) (*models.RFP, error)
	CloseRFP(ctx context.Context, id int) (*models.RFP, error)
	DeleteRFP(ctx context.Context, id int) ([]string, error)

	CreateResponse(ctx context.Context, r *models.Response) error
	GetResponse(ctx context.Context, id int) (*models.Response, error)
	ListRFPResponses(ctx context.Context, rfpID, limit, offset int) ([]models.Response, error)
	ListUserResponses(ctx context.Context, userID int, status string, limit, offset int) ([]models.Response, error)
	UpdateResponse(ctx context.Context, r *models.Response, fromStatus string) error
	SubmitResponse(ctx context.Context, id int) (*models.Response, error)
	ReviewResponse(ctx context.Context, id int, outcome, notes string) (*models.Response, error)
	DeleteResponse(ctx context.Context, id int) ([]string, error)

	AttachDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id int) (*models.Document, error)
	ListDocuments(ctx context.Context, ids []int64) ([]models.Document, error)
	DetachDocument(ctx context.Context, d *models.Document) error
}
