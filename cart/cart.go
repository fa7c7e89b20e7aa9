// Package cart keeps the client-side shopping cart. The cart is single-writer
// and persists its full item list after every mutation.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/pizzeria-app/models"
)

// StorageKey is the fixed storage name the items are saved under.
const StorageKey = "cart"

var (
	ErrInvalidSelection = models.ErrInvalidSelection
	ErrIndexOutOfRange  = errors.New("cart index out of range")
	ErrEmptyCart        = errors.New("cart is empty")
)

// DefaultDeliveryFee is added to every cart total.
var DefaultDeliveryFee = decimal.NewFromInt(5)

// Item is one product and size selection. Product is the snapshot taken when
// the item was added and Price the unit price captured at that moment.
type Item struct {
	Product      models.Product   `json:"product"`
	Size         *models.SizeName `json:"size,omitempty"`
	Quantity     int              `json:"quantity"`
	Observations string           `json:"observations,omitempty"`
	Price        decimal.Decimal  `json:"price"`
}

func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) matches(productID string, size *models.SizeName) bool {
	if i.Product.ID != productID {
		return false
	}
	if i.Size == nil || size == nil {
		return i.Size == nil && size == nil
	}
	return *i.Size == *size
}

type Cart struct {
	items       []Item
	storage     Storage
	deliveryFee decimal.Decimal
	onSaveError func(error)
}

type Option func(*Cart)

func WithDeliveryFee(fee decimal.Decimal) Option {
	return func(c *Cart) { c.deliveryFee = fee }
}

// WithSaveErrorHandler registers fn to be told about failed storage writes.
// A failed write never fails the mutation that caused it.
func WithSaveErrorHandler(fn func(error)) Option {
	return func(c *Cart) { c.onSaveError = fn }
}

// Load rehydrates the cart kept in storage. Missing or unreadable data gives
// an empty cart.
func Load(storage Storage, opts ...Option) *Cart {
	c := &Cart{
		storage:     storage,
		deliveryFee: DefaultDeliveryFee,
	}
	for _, opt := range opts {
		opt(c)
	}

	raw, ok, err := storage.Get(StorageKey)
	if err != nil || !ok {
		return c
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return c
	}
	for _, item := range items {
		if item.Product.ID == "" || item.Quantity < 1 {
			continue
		}
		c.items = append(c.items, item)
	}
	return c
}

// AddItem merges the selection into an existing entry with the same product
// and size, or appends it with the current unit price.
func (c *Cart) AddItem(product models.Product, size *models.SizeName, quantity int, observations string) error {
	price, err := product.UnitPrice(size)
	if err != nil {
		return err
	}
	if quantity < 1 {
		quantity = 1
	}

	for i := range c.items {
		if c.items[i].matches(product.ID, size) {
			c.items[i].Quantity += quantity
			c.save()
			return nil
		}
	}

	var selected *models.SizeName
	if size != nil {
		s := *size
		selected = &s
	}
	c.items = append(c.items, Item{
		Product:      product,
		Size:         selected,
		Quantity:     quantity,
		Observations: observations,
		Price:        price,
	})
	c.save()
	return nil
}

func (c *Cart) RemoveItem(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	c.save()
	return nil
}

// UpdateQuantity replaces the quantity at index. Quantities below one are
// ignored.
func (c *Cart) UpdateQuantity(index, quantity int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if quantity < 1 {
		return nil
	}
	c.items[index].Quantity = quantity
	c.save()
	return nil
}

func (c *Cart) Clear() {
	c.items = nil
	c.save()
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int { return len(c.items) }

// Count is the number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return models.RoundMoney(total)
}

func (c *Cart) DeliveryFee() decimal.Decimal { return c.deliveryFee }

func (c *Cart) Total() decimal.Decimal {
	return models.RoundMoney(c.Subtotal().Add(c.deliveryFee))
}

func (c *Cart) save() {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err == nil {
		err = c.storage.Set(StorageKey, string(data))
	}
	if err != nil && c.onSaveError != nil {
		c.onSaveError(err)
	}
}
