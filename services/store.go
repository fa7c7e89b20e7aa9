package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/pizzeria-app/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrDuplicateEmail  = errors.New("email already registered")
)

// ProductFilter narrows a product listing. Nil fields are not applied.
type ProductFilter struct {
	Category  *models.Category
	Available *bool
	Featured  *bool
}

// OrderFilter narrows an order listing. Empty fields are not applied.
type OrderFilter struct {
	UserID string
	Status models.OrderStatus
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	// ListProducts returns the newest products first.
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type OrderStore interface {
	// CreateOrder inserts the order and its items atomically.
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrders returns the newest orders first.
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// UpdateOrder persists o only if the stored version still equals
	// expectedVersion, and returns ErrVersionConflict otherwise. On success
	// o.Version is expectedVersion+1.
	UpdateOrder(ctx context.Context, o *models.Order, expectedVersion int) error
}

type UserStore interface {
	// CreateUser returns ErrDuplicateEmail when the normalized email exists.
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

// Store is implemented by every storage adapter.
type Store interface {
	ProductStore
	OrderStore
	UserStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Caller is the authenticated identity a request acts as.
type Caller struct {
	UserID string
	Role   models.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}
