package order_repo

import (
	"context"
	"errors"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository interface {
	FindByID(ctx context.Context, querier domain.Querier, id string) (*domain.Order, error)
	FindByTrackingID(ctx context.Context, querier domain.Querier, trackingID string) (*domain.Order, error)
	Save(ctx context.Context, querier domain.Querier, order *domain.Order) error
}
