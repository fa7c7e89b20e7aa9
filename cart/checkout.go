package cart

import (
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/pizzeria-app/models"
)

type OrderItemRequest struct {
	Product      string           `json:"product"`
	Quantity     int              `json:"quantity"`
	Size         *models.SizeName `json:"size,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	Observations string           `json:"observations,omitempty"`
}

// OrderRequest is the body of POST /api/orders.
type OrderRequest struct {
	Items           []OrderItemRequest   `json:"items"`
	DeliveryAddress *models.Address      `json:"deliveryAddress,omitempty"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	ChangeNeeded    *decimal.Decimal     `json:"changeNeeded,omitempty"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	DeliveryFee     decimal.Decimal      `json:"deliveryFee"`
}

// ToOrderRequest builds the checkout payload from the current items. A nil
// address lets the server use the one stored on the account.
func (c *Cart) ToOrderRequest(address *models.Address, payment models.Payment) (OrderRequest, error) {
	if len(c.items) == 0 {
		return OrderRequest{}, ErrEmptyCart
	}

	method, change := models.PaymentFields(payment)
	req := OrderRequest{
		Items:           make([]OrderItemRequest, 0, len(c.items)),
		DeliveryAddress: address,
		PaymentMethod:   method,
		ChangeNeeded:    change,
		TotalAmount:     c.Total(),
		DeliveryFee:     c.deliveryFee,
	}
	for _, item := range c.items {
		req.Items = append(req.Items, OrderItemRequest{
			Product:      item.Product.ID,
			Quantity:     item.Quantity,
			Size:         item.Size,
			Price:        item.Price,
			Observations: item.Observations,
		})
	}
	return req, nil
}
