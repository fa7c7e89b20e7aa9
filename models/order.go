package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// ParseOrderStatus accepts a wire status in any case.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range orderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type OrderItem struct {
	ProductID    string          `json:"product"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	Size         *SizeName       `json:"size,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Observations string          `json:"observations,omitempty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Customer is the contact summary of the user who placed an order. It is
// resolved on read and never stored with the order.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Order struct {
	ID                  string
	UserID              string
	Customer            *Customer
	Items               []OrderItem
	Status              OrderStatus
	TotalAmount         decimal.Decimal
	DeliveryAddress     Address
	Payment             Payment
	DeliveryFee         decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
	EstimatedDeliveryAt *time.Time
	DeliveredAt         *time.Time
	Version             int
}

// ItemsTotal is the sum of price times quantity over all line items.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (o Order) IsOwnedBy(userID string) bool {
	return userID != "" && o.UserID == userID
}

type orderJSON struct {
	ID                  string           `json:"id"`
	User                json.RawMessage  `json:"user"`
	Items               []OrderItem      `json:"items"`
	Status              OrderStatus      `json:"status"`
	TotalAmount         decimal.Decimal  `json:"totalAmount"`
	DeliveryAddress     Address          `json:"deliveryAddress"`
	PaymentMethod       PaymentMethod    `json:"paymentMethod"`
	ChangeNeeded        *decimal.Decimal `json:"changeNeeded,omitempty"`
	DeliveryFee         decimal.Decimal  `json:"deliveryFee"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	EstimatedDeliveryAt *time.Time       `json:"estimatedDeliveryTime,omitempty"`
	DeliveredAt         *time.Time       `json:"deliveredAt,omitempty"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	method, change := PaymentFields(o.Payment)
	items := o.Items
	if items == nil {
		items = []OrderItem{}
	}

	// user is the bare id unless the customer was resolved
	var user interface{} = o.UserID
	if o.Customer != nil {
		c := *o.Customer
		c.ID = o.UserID
		user = c
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}

	return json.Marshal(orderJSON{
		ID:                  o.ID,
		User:                userJSON,
		Items:               items,
		Status:              o.Status,
		TotalAmount:         o.TotalAmount,
		DeliveryAddress:     o.DeliveryAddress,
		PaymentMethod:       method,
		ChangeNeeded:        change,
		DeliveryFee:         o.DeliveryFee,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		DeliveredAt:         o.DeliveredAt,
	})
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var in orderJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*o = Order{
		ID:                  in.ID,
		Items:               in.Items,
		Status:              in.Status,
		TotalAmount:         in.TotalAmount,
		DeliveryAddress:     in.DeliveryAddress,
		DeliveryFee:         in.DeliveryFee,
		CreatedAt:           in.CreatedAt,
		UpdatedAt:           in.UpdatedAt,
		EstimatedDeliveryAt: in.EstimatedDeliveryAt,
		DeliveredAt:         in.DeliveredAt,
	}

	user := bytes.TrimSpace(in.User)
	switch {
	case len(user) == 0 || bytes.Equal(user, []byte("null")):
	case user[0] == '{':
		var c Customer
		if err := json.Unmarshal(user, &c); err != nil {
			return fmt.Errorf("order user: %w", err)
		}
		o.UserID = c.ID
		o.Customer = &c
	default:
		if err := json.Unmarshal(user, &o.UserID); err != nil {
			return fmt.Errorf("order user: %w", err)
		}
	}

	if in.PaymentMethod != "" {
		p, err := NewPayment(in.PaymentMethod, in.ChangeNeeded)
		if err != nil {
			return fmt.Errorf("order payment: %w", err)
		}
		o.Payment = p
	}
	return nil
}
