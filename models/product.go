package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryPizza Category = "Pizza"
	CategoryDrink Category = "Drink"
	CategorySide  Category = "Side"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPizza, CategoryDrink, CategorySide:
		return true
	}
	return false
}

type SizeName string

const (
	SizeSmall  SizeName = "Small"
	SizeMedium SizeName = "Medium"
	SizeLarge  SizeName = "Large"
	SizeFamily SizeName = "Family"
)

func (s SizeName) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeFamily:
		return true
	}
	return false
}

type Size struct {
	Name  SizeName        `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ErrInvalidSelection is returned when a size is missing for a pizza, does not
// belong to the product, or is given for a product that has no sizes.
var ErrInvalidSelection = errors.New("invalid product selection")

// ProductDetails holds the category-specific part of a product. Pizzas carry
// ingredients and sizes, every other category carries a flat price.
type ProductDetails interface {
	isProductDetails()
	// UnitPrice resolves the price of one unit for the given size.
	UnitPrice(size *SizeName) (decimal.Decimal, error)
}

type PizzaDetails struct {
	Ingredients []string
	Sizes       []Size
}

func (PizzaDetails) isProductDetails() {}

func (p PizzaDetails) UnitPrice(size *SizeName) (decimal.Decimal, error) {
	if size == nil {
		return decimal.Zero, fmt.Errorf("%w: a size is required", ErrInvalidSelection)
	}
	for _, s := range p.Sizes {
		if s.Name == *size {
			return s.Price, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: size %q is not offered", ErrInvalidSelection, *size)
}

type FlatPrice struct {
	Price decimal.Decimal
}

func (FlatPrice) isProductDetails() {}

func (f FlatPrice) UnitPrice(size *SizeName) (decimal.Decimal, error) {
	if size != nil {
		return decimal.Zero, fmt.Errorf("%w: product has no sizes", ErrInvalidSelection)
	}
	return f.Price, nil
}

// NewProductDetails builds the details variant that matches category. Fields
// that do not belong to the variant are dropped.
func NewProductDetails(category Category, ingredients []string, sizes []Size, price *decimal.Decimal) ProductDetails {
	if category == CategoryPizza {
		return PizzaDetails{Ingredients: ingredients, Sizes: sizes}
	}
	var p decimal.Decimal
	if price != nil {
		p = *price
	}
	return FlatPrice{Price: p}
}

type Product struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Image       string
	Available   bool
	Featured    bool
	CreatedAt   time.Time
	Details     ProductDetails
}

// UnitPrice resolves the price of one unit of p in the given size.
func (p Product) UnitPrice(size *SizeName) (decimal.Decimal, error) {
	if p.Details == nil {
		return decimal.Zero, fmt.Errorf("%w: product has no pricing", ErrInvalidSelection)
	}
	return p.Details.UnitPrice(size)
}

// Validate enforces the category pricing rule: pizzas need ingredients and
// sizes, everything else needs a positive flat price.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return errors.New("description is required")
	}
	if !p.Category.Valid() {
		return fmt.Errorf("invalid category %q", p.Category)
	}
	if strings.TrimSpace(p.Image) == "" {
		return errors.New("image is required")
	}

	switch d := p.Details.(type) {
	case PizzaDetails:
		if p.Category != CategoryPizza {
			return fmt.Errorf("%s products cannot have sizes", p.Category)
		}
		if len(d.Ingredients) == 0 {
			return errors.New("pizza requires at least one ingredient")
		}
		if len(d.Sizes) == 0 {
			return errors.New("pizza requires at least one size")
		}
		seen := make(map[SizeName]bool, len(d.Sizes))
		for _, s := range d.Sizes {
			if !s.Name.Valid() {
				return fmt.Errorf("invalid size %q", s.Name)
			}
			if seen[s.Name] {
				return fmt.Errorf("size %q is listed twice", s.Name)
			}
			seen[s.Name] = true
			if !s.Price.IsPositive() {
				return fmt.Errorf("size %q must have a positive price", s.Name)
			}
		}
	case FlatPrice:
		if p.Category == CategoryPizza {
			return errors.New("pizza requires sizes instead of a flat price")
		}
		if !d.Price.IsPositive() {
			return errors.New("price must be positive")
		}
	default:
		return errors.New("product pricing is missing")
	}
	return nil
}

type productJSON struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    Category         `json:"category"`
	Ingredients []string         `json:"ingredients,omitempty"`
	Sizes       []Size           `json:"sizes,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Image       string           `json:"image"`
	Available   bool             `json:"available"`
	Featured    bool             `json:"featured"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	out := productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
		Available:   p.Available,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
	}
	switch d := p.Details.(type) {
	case PizzaDetails:
		out.Ingredients = d.Ingredients
		out.Sizes = d.Sizes
	case FlatPrice:
		price := d.Price
		out.Price = &price
	}
	return json.Marshal(out)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var in productJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Product{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Image:       in.Image,
		Available:   in.Available,
		Featured:    in.Featured,
		CreatedAt:   in.CreatedAt,
		Details:     NewProductDetails(in.Category, in.Ingredients, in.Sizes, in.Price),
	}
	return nil
}
