package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// ProductInput carries the fields of a create or update request. Nil fields
// keep their current value on update.
type ProductInput struct {
	Name        *string
	Description *string
	Category    *models.Category
	Ingredients []string
	Sizes       []models.Size
	Price       *decimal.Decimal
	Image       *string
	Available   *bool
	Featured    *bool
}

type ProductService struct {
	products ProductStore
	now      func() time.Time
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products, now: time.Now}
}

func (s *ProductService) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, utils.NewNotFound("product not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return product, nil
}

// Create stores a new product. Products are available and not featured
// unless the input says otherwise.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := &models.Product{
		ID:        uuid.NewString(),
		Available: true,
		CreatedAt: s.now(),
	}
	applyProductInput(product, in)

	if err := product.Validate(); err != nil {
		return nil, utils.NewValidationError("%s", err.Error())
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, utils.NewInternalError(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"category":   product.Category,
	}).Info("product created")
	return product, nil
}

// Update merges in over the stored product and validates the result.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductInput(product, in)

	if err := product.Validate(); err != nil {
		return nil, utils.NewValidationError("%s", err.Error())
	}
	err = s.products.UpdateProduct(ctx, product)
	if errors.Is(err, ErrNotFound) {
		return nil, utils.NewNotFound("product not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.products.DeleteProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, utils.NewNotFound("product not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	utils.InfoLogger.WithField("product_id", id).Info("product deleted")
	return product, nil
}

func applyProductInput(p *models.Product, in ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Available != nil {
		p.Available = *in.Available
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}

	var (
		ingredients []string
		sizes       []models.Size
		price       *decimal.Decimal
	)
	switch d := p.Details.(type) {
	case models.PizzaDetails:
		ingredients, sizes = d.Ingredients, d.Sizes
	case models.FlatPrice:
		current := d.Price
		price = &current
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Ingredients != nil {
		ingredients = in.Ingredients
	}
	if in.Sizes != nil {
		sizes = in.Sizes
	}
	if in.Price != nil {
		price = in.Price
	}
	p.Details = models.NewProductDetails(p.Category, ingredients, sizes, price)
}
