package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"restock/api/internal/models"
)

var ErrRequestNotFound = errors.New("purchase request not found")

type RequestRepository struct {
	db DB
}

func NewRequestRepository(db DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, request *models.PurchaseRequest) error {
	const query = `
		INSERT INTO purchase_requests (product_id, quantity, requester_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return r.db.QueryRow(ctx, query,
		request.ProductID,
		request.Quantity,
		request.RequesterID,
		string(request.Status),
		request.CreatedAt,
	).Scan(&request.ID)
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (models.PurchaseRequest, error) {
	const query = `
		SELECT id, product_id, quantity, requester_id, status, created_at
		FROM purchase_requests WHERE id = $1
	`

	return scanRequest(r.db.QueryRow(ctx, query, id))
}

func (r *RequestRepository) List(ctx context.Context) ([]models.PurchaseRequest, error) {
	const query = `
		SELECT id, product_id, quantity, requester_id, status, created_at
		FROM purchase_requests ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID int64) ([]models.PurchaseRequest, error) {
	const query = `
		SELECT id, product_id, quantity, requester_id, status, created_at
		FROM purchase_requests WHERE requester_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	const query = `
		UPDATE purchase_requests SET status = $2 WHERE id = $1
	`

	cmd, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	const query = `
		DELETE FROM purchase_requests WHERE id = $1
	`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	var status string
	if err := row.Scan(
		&request.ID,
		&request.ProductID,
		&request.Quantity,
		&request.RequesterID,
		&status,
		&request.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PurchaseRequest{}, ErrRequestNotFound
		}
		return models.PurchaseRequest{}, err
	}

	request.Status = models.RequestStatus(status)
	if !request.Status.Valid() {
		return models.PurchaseRequest{}, fmt.Errorf("%w: request status %q", ErrDataIntegrity, status)
	}
	return request, nil
}

func collectRequests(rows pgx.Rows) ([]models.PurchaseRequest, error) {
	var requests []models.PurchaseRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}
