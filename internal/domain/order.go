package domain

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusApproved   OrderStatus = "APPROVED"
	OrderStatusCancelling OrderStatus = "CANCELLING"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var ErrInvalidOrderData = errors.New("invalid order data")

type OrderItem struct {
	ProductID string
	Quantity  int
	Price     float64
}

// SubTotal is the line total for the item.
func (i OrderItem) SubTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Order struct {
	ID              string
	CustomerID      string
	RestaurantID    string
	TrackingID      string
	Price           float64
	Items           []OrderItem
	Status          OrderStatus
	FailureMessages []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidateOrder checks structural invariants before the order enters the saga.
func (o *Order) ValidateOrder() error {
	if o.ID == "" || o.CustomerID == "" || o.RestaurantID == "" {
		return ErrInvalidOrderData
	}
	if o.Price <= 0 {
		return fmt.Errorf("%w: total price must be greater than zero", ErrInvalidOrderData)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrInvalidOrderData)
	}
	var itemsTotal float64
	for _, item := range o.Items {
		if item.Quantity <= 0 || item.Price <= 0 {
			return fmt.Errorf("%w: item %s has invalid quantity or price", ErrInvalidOrderData, item.ProductID)
		}
		itemsTotal += item.SubTotal()
	}
	if itemsTotal != o.Price {
		return fmt.Errorf("%w: total price %.2f does not match items total %.2f", ErrInvalidOrderData, o.Price, itemsTotal)
	}
	return nil
}

// Pay moves the order from PENDING to PAID.
func (o *Order) Pay() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("order %s is not in %s state for pay operation", o.ID, OrderStatusPending)
	}
	o.Status = OrderStatusPaid
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Approve moves the order from PAID to APPROVED.
func (o *Order) Approve() error {
	if o.Status != OrderStatusPaid {
		return fmt.Errorf("order %s is not in %s state for approve operation", o.ID, OrderStatusPaid)
	}
	o.Status = OrderStatusApproved
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// InitCancel moves a PAID order to CANCELLING so a refund can be requested.
func (o *Order) InitCancel(failureMessages []string) error {
	if o.Status != OrderStatusPaid {
		return fmt.Errorf("order %s is not in %s state for initCancel operation", o.ID, OrderStatusPaid)
	}
	o.Status = OrderStatusCancelling
	o.appendFailureMessages(failureMessages)
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel moves the order to its terminal CANCELLED state. Reachable from
// PENDING (payment never succeeded) and CANCELLING (refund confirmed).
func (o *Order) Cancel(failureMessages []string) error {
	if o.Status != OrderStatusPending && o.Status != OrderStatusCancelling {
		return fmt.Errorf("order %s is not in a valid state for cancel operation", o.ID)
	}
	o.Status = OrderStatusCancelled
	o.appendFailureMessages(failureMessages)
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (o *Order) appendFailureMessages(messages []string) {
	for _, m := range messages {
		if m != "" {
			o.FailureMessages = append(o.FailureMessages, m)
		}
	}
}
