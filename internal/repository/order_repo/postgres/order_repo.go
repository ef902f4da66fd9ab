package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/order_repo"
)

type pgOrderRepository struct {
	logger *zap.Logger
}

func NewOrderRepository(l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{logger: l}
}

const orderColumns = `id, customer_id, restaurant_id, tracking_id, price, status, failure_messages, created_at, updated_at`

func (r *pgOrderRepository) FindByID(ctx context.Context, querier domain.Querier, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.findOne(ctx, querier, query, id)
}

func (r *pgOrderRepository) FindByTrackingID(ctx context.Context, querier domain.Querier, trackingID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tracking_id = $1`
	return r.findOne(ctx, querier, query, trackingID)
}

func (r *pgOrderRepository) findOne(ctx context.Context, querier domain.Querier, query, arg string) (*domain.Order, error) {
	order := &domain.Order{}
	var failureMessages pq.StringArray
	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&order.ID,
		&order.CustomerID,
		&order.RestaurantID,
		&order.TrackingID,
		&order.Price,
		&order.Status,
		&failureMessages,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order_repo.ErrOrderNotFound
		}
		r.logger.Error("Failed to get order", zap.String("arg", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.FailureMessages = []string(failureMessages)

	if err := r.loadItems(ctx, querier, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepository) loadItems(ctx context.Context, querier domain.Querier, order *domain.Order) error {
	query := `SELECT product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY product_id`
	rows, err := querier.QueryContext(ctx, query, order.ID)
	if err != nil {
		r.logger.Error("Failed to query order items", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to get items for order %s: %w", order.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item row: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

func (r *pgOrderRepository) Save(ctx context.Context, querier domain.Querier, order *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, failure_messages = EXCLUDED.failure_messages, updated_at = EXCLUDED.updated_at`
	res, err := querier.ExecContext(ctx, query,
		order.ID,
		order.CustomerID,
		order.RestaurantID,
		order.TrackingID,
		order.Price,
		order.Status,
		pq.Array(order.FailureMessages),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save order", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Error("Order save affected no rows", zap.String("order_id", order.ID))
		return fmt.Errorf("order save for %s was not acknowledged", order.ID)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, product_id) DO NOTHING`
	for _, item := range order.Items {
		if _, err := querier.ExecContext(ctx, itemQuery, order.ID, item.ProductID, item.Quantity, item.Price); err != nil {
			r.logger.Error("Failed to save order item", zap.String("order_id", order.ID), zap.String("product_id", item.ProductID), zap.Error(err))
			return fmt.Errorf("failed to save item %s for order %s: %w", item.ProductID, order.ID, err)
		}
	}

	r.logger.Debug("Order saved", zap.String("order_id", order.ID), zap.String("status", string(order.Status)))
	return nil
}
