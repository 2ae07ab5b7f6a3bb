package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"restock/api/internal/models"
	"restock/api/internal/repository"
)

// InventoryService covers the simple CRUD around products and purchase
// requests. The auth subsystem treats these entities as opaque.
type InventoryService struct {
	products *repository.ProductRepository
	requests *repository.RequestRepository
	log      zerolog.Logger
}

func NewInventoryService(
	products *repository.ProductRepository,
	requests *repository.RequestRepository,
	log zerolog.Logger,
) *InventoryService {
	return &InventoryService{products: products, requests: requests, log: log}
}

func validateStock(product models.Product) error {
	if product.Name == "" {
		return fmt.Errorf("product name required")
	}
	if product.MinStock < 0 {
		return fmt.Errorf("min_stock must be non-negative")
	}
	if product.MaxStock <= product.MinStock {
		return fmt.Errorf("max_stock must be greater than min_stock")
	}
	if product.CurrentStock < 0 {
		return fmt.Errorf("current_stock must be non-negative")
	}
	return nil
}

func (s *InventoryService) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	if err := validateStock(product); err != nil {
		return models.Product{}, err
	}
	if err := s.products.Create(ctx, &product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (s *InventoryService) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *InventoryService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.List(ctx)
}

func (s *InventoryService) UpdateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	if err := validateStock(product); err != nil {
		return models.Product{}, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (s *InventoryService) DeleteProduct(ctx context.Context, id int64) error {
	return s.products.Delete(ctx, id)
}

// CreateRequest opens a pending purchase request for an existing product.
func (s *InventoryService) CreateRequest(ctx context.Context, productID int64, quantity int, requesterID int64) (models.PurchaseRequest, error) {
	if quantity <= 0 {
		return models.PurchaseRequest{}, fmt.Errorf("quantity must be positive")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return models.PurchaseRequest{}, err
	}

	request := models.PurchaseRequest{
		ProductID:   productID,
		Quantity:    quantity,
		RequesterID: requesterID,
		Status:      models.RequestStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.requests.Create(ctx, &request); err != nil {
		return models.PurchaseRequest{}, err
	}
	return request, nil
}

func (s *InventoryService) GetRequest(ctx context.Context, id int64) (models.PurchaseRequest, error) {
	return s.requests.GetByID(ctx, id)
}

func (s *InventoryService) ListRequests(ctx context.Context) ([]models.PurchaseRequest, error) {
	return s.requests.List(ctx)
}

func (s *InventoryService) ListRequestsByRequester(ctx context.Context, requesterID int64) ([]models.PurchaseRequest, error) {
	return s.requests.ListByRequester(ctx, requesterID)
}

// SetRequestStatus moves a request to approved or rejected.
func (s *InventoryService) SetRequestStatus(ctx context.Context, id int64, status models.RequestStatus) (models.PurchaseRequest, error) {
	if !status.Valid() || status == models.RequestStatusPending {
		return models.PurchaseRequest{}, fmt.Errorf("invalid status transition to %q", status)
	}
	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		return models.PurchaseRequest{}, err
	}
	s.log.Info().Int64("request_id", id).Str("status", string(status)).Msg("purchase request updated")
	return s.requests.GetByID(ctx, id)
}

func (s *InventoryService) DeleteRequest(ctx context.Context, id int64) error {
	return s.requests.Delete(ctx, id)
}
