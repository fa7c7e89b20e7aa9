package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// maxUpdateAttempts bounds the read-modify-write loop on version conflicts.
const maxUpdateAttempts = 3

type OrderItemInput struct {
	ProductID    string
	Quantity     int
	Size         *models.SizeName
	Price        decimal.Decimal
	Observations string
}

type CreateOrderInput struct {
	Items []OrderItemInput
	// DeliveryAddress falls back to the customer's stored address when nil.
	DeliveryAddress *models.Address
	PaymentMethod   models.PaymentMethod
	ChangeNeeded    *decimal.Decimal
	TotalAmount     decimal.Decimal
	DeliveryFee     decimal.Decimal
}

type OrderService struct {
	orders   OrderStore
	products ProductStore
	users    UserStore
	now      func() time.Time
	// deliveryFee, when set, is the only fee an order may carry.
	deliveryFee *decimal.Decimal
}

type OrderServiceOption func(*OrderService)

// WithClock replaces the time source used for order timestamps.
func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) { s.now = now }
}

// WithDeliveryFee makes Create reject orders whose fee differs from fee.
func WithDeliveryFee(fee decimal.Decimal) OrderServiceOption {
	return func(s *OrderService) {
		f := models.RoundMoney(fee)
		s.deliveryFee = &f
	}
}

func NewOrderService(store Store, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		orders:   store,
		products: store,
		users:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request against the catalog and stores a pending order.
// The client total must equal the item total plus the delivery fee.
func (s *OrderService) Create(ctx context.Context, caller Caller, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, utils.NewValidationError("order must contain at least one item")
	}
	if in.DeliveryFee.IsNegative() {
		return nil, utils.NewValidationError("deliveryFee cannot be negative")
	}
	if s.deliveryFee != nil && !models.SameAmount(in.DeliveryFee, *s.deliveryFee) {
		return nil, utils.NewValidationError("deliveryFee must be %s", s.deliveryFee.StringFixed(2))
	}
	if !in.TotalAmount.IsPositive() {
		return nil, utils.NewValidationError("totalAmount must be positive")
	}

	payment, err := models.NewPayment(in.PaymentMethod, in.ChangeNeeded)
	if err != nil {
		return nil, utils.NewValidationError("%s", err.Error())
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for i, item := range in.Items {
		line, err := s.resolveItem(ctx, i, item)
		if err != nil {
			return nil, err
		}
		items = append(items, line)
	}

	address, err := s.deliveryAddress(ctx, caller, in.DeliveryAddress)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:              uuid.NewString(),
		UserID:          caller.UserID,
		Items:           items,
		Status:          models.StatusPending,
		DeliveryAddress: address,
		Payment:         payment,
		DeliveryFee:     models.RoundMoney(in.DeliveryFee),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	expected := models.RoundMoney(order.ItemsTotal().Add(order.DeliveryFee))
	if !models.SameAmount(in.TotalAmount, expected) {
		return nil, utils.NewValidationError("totalAmount %s does not match items plus delivery fee (%s)",
			in.TotalAmount.StringFixed(2), expected.StringFixed(2))
	}
	order.TotalAmount = expected

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, utils.NewInternalError(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"items":    len(order.Items),
		"total":    order.TotalAmount.StringFixed(2),
	}).Info("order created")
	return order, nil
}

func (s *OrderService) resolveItem(ctx context.Context, idx int, in OrderItemInput) (models.OrderItem, error) {
	if in.ProductID == "" {
		return models.OrderItem{}, utils.NewValidationError("items[%d]: product is required", idx)
	}
	if in.Quantity < 1 {
		return models.OrderItem{}, utils.NewValidationError("items[%d]: quantity must be at least 1", idx)
	}
	if !in.Price.IsPositive() {
		return models.OrderItem{}, utils.NewValidationError("items[%d]: price must be positive", idx)
	}

	product, err := s.products.GetProduct(ctx, in.ProductID)
	if errors.Is(err, ErrNotFound) {
		return models.OrderItem{}, utils.NewValidationError("items[%d]: product %s does not exist", idx, in.ProductID)
	}
	if err != nil {
		return models.OrderItem{}, utils.NewInternalError(err)
	}
	if !product.Available {
		return models.OrderItem{}, utils.NewValidationError("items[%d]: %s is not available", idx, product.Name)
	}

	unit, err := product.UnitPrice(in.Size)
	if err != nil {
		return models.OrderItem{}, utils.NewValidationError("items[%d]: %s", idx, err.Error())
	}
	if !models.SameAmount(unit, in.Price) {
		return models.OrderItem{}, utils.NewValidationError("items[%d]: price of %s changed to %s",
			idx, product.Name, unit.StringFixed(2))
	}

	return models.OrderItem{
		ProductID:    product.ID,
		ProductName:  product.Name,
		Quantity:     in.Quantity,
		Size:         in.Size,
		Price:        models.RoundMoney(unit),
		Observations: in.Observations,
	}, nil
}

func (s *OrderService) deliveryAddress(ctx context.Context, caller Caller, addr *models.Address) (models.Address, error) {
	if addr == nil {
		user, err := s.users.GetUser(ctx, caller.UserID)
		if errors.Is(err, ErrNotFound) {
			return models.Address{}, utils.NewInvalidCredential("user no longer exists")
		}
		if err != nil {
			return models.Address{}, utils.NewInternalError(err)
		}
		addr = &user.Address
	}
	if err := addr.Validate(); err != nil {
		return models.Address{}, utils.NewValidationError("deliveryAddress: %s", err.Error())
	}
	return *addr, nil
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, caller Caller) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, OrderFilter{UserID: caller.UserID})
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return orders, nil
}

// ListAll returns every order newest first, optionally narrowed to one status.
func (s *OrderService) ListAll(ctx context.Context, status string) ([]models.Order, error) {
	filter := OrderFilter{}
	if status != "" {
		st, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, utils.NewValidationError("invalid status %q", status)
		}
		filter.Status = st
	}
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	if err := s.attachCustomers(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachCustomers fills in the contact summary of each order's user. Orders
// whose user was removed keep the bare id.
func (s *OrderService) attachCustomers(ctx context.Context, orders []models.Order) error {
	seen := make(map[string]*models.Customer)
	for i := range orders {
		id := orders[i].UserID
		customer, ok := seen[id]
		if !ok {
			user, err := s.users.GetUser(ctx, id)
			switch {
			case errors.Is(err, ErrNotFound):
			case err != nil:
				return utils.NewInternalError(err)
			default:
				customer = &models.Customer{ID: user.ID, Name: user.Name, Email: user.Email, Phone: user.Phone}
			}
			seen[id] = customer
		}
		orders[i].Customer = customer
	}
	return nil
}

func (s *OrderService) attachCustomer(ctx context.Context, order *models.Order) error {
	orders := []models.Order{*order}
	if err := s.attachCustomers(ctx, orders); err != nil {
		return err
	}
	order.Customer = orders[0].Customer
	return nil
}

// Get returns the order if the caller owns it or is an admin.
func (s *OrderService) Get(ctx context.Context, caller Caller, id string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrder(caller, order); err != nil {
		return nil, err
	}
	if err := s.attachCustomer(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus is the administrative override: any known status may be set.
// Moving to cancelled still requires the order to be cancellable.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, utils.NewValidationError("invalid status %q", status)
	}

	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		return s.transition(o, next)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("order status updated")

	if err := s.attachCustomer(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel moves a pending or confirmed order to cancelled on behalf of its
// owner or an admin.
func (s *OrderService) Cancel(ctx context.Context, caller Caller, id string) (*models.Order, error) {
	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		if err := authorizeOrder(caller, o); err != nil {
			return err
		}
		return s.transition(o, models.StatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"caller_id": caller.UserID,
	}).Info("order cancelled")
	return order, nil
}

func (s *OrderService) transition(o *models.Order, next models.OrderStatus) error {
	if err := models.ApplyStatus(o, next, s.now()); err != nil {
		if errors.Is(err, models.ErrNotCancellable) {
			return utils.NewInvalidTransition("%s", err.Error())
		}
		return utils.NewValidationError("%s", err.Error())
	}
	return nil
}

// mutate re-reads and re-applies fn until the write lands on the version it
// was computed from.
func (s *OrderService) mutate(ctx context.Context, id string, fn func(*models.Order) error) (*models.Order, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		order, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(order); err != nil {
			return nil, err
		}

		err = s.orders.UpdateOrder(ctx, order, order.Version)
		if err == nil {
			return order, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, utils.NewNotFound("order not found")
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, utils.NewInternalError(err)
		}

		utils.InfoLogger.WithFields(logrus.Fields{
			"order_id": id,
			"attempt":  attempt,
		}).Warn("order update conflicted, retrying")
	}

	return nil, &utils.AppError{
		Kind:      utils.KindInternal,
		Message:   "order is being modified concurrently",
		Err:       ErrVersionConflict,
		Retryable: true,
	}
}

func (s *OrderService) load(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, utils.NewNotFound("order not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return order, nil
}

func authorizeOrder(caller Caller, o *models.Order) error {
	if caller.IsAdmin() || o.IsOwnedBy(caller.UserID) {
		return nil
	}
	return utils.NewForbidden("you do not have access to this order")
}
