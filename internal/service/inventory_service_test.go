package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"restock/api/internal/models"
)

func TestCreateProduct_StockValidation(t *testing.T) {
	svc := NewInventoryService(nil, nil, zerolog.Nop())
	ctx := context.Background()

	cases := []struct {
		name    string
		product models.Product
	}{
		{"empty name", models.Product{MinStock: 1, MaxStock: 2}},
		{"negative min", models.Product{Name: "bolts", MinStock: -1, MaxStock: 2}},
		{"max not above min", models.Product{Name: "bolts", MinStock: 5, MaxStock: 5}},
		{"negative current", models.Product{Name: "bolts", CurrentStock: -1, MinStock: 0, MaxStock: 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.product)
			require.Error(t, err)
		})
	}
}

func TestCreateRequest_RejectsNonPositiveQuantity(t *testing.T) {
	svc := NewInventoryService(nil, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.CreateRequest(ctx, 1, 0, 2)
	require.Error(t, err)
	_, err = svc.CreateRequest(ctx, 1, -3, 2)
	require.Error(t, err)
}

func TestSetRequestStatus_RejectsInvalidTransitions(t *testing.T) {
	svc := NewInventoryService(nil, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.SetRequestStatus(ctx, 1, models.RequestStatusPending)
	require.Error(t, err)
	_, err = svc.SetRequestStatus(ctx, 1, models.RequestStatus("cancelled"))
	require.Error(t, err)
}
