package database

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/pizzeria-app/models"
)

type productRow struct {
	ID          string              `gorm:"primaryKey;type:varchar(36)"`
	Name        string              `gorm:"type:varchar(255);not null"`
	Description string              `gorm:"type:text;not null"`
	Category    string              `gorm:"type:varchar(20);not null;index"`
	Ingredients []string            `gorm:"type:text;serializer:json"`
	Sizes       []models.Size       `gorm:"type:text;serializer:json"`
	Price       decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	Image       string              `gorm:"type:varchar(512);not null"`
	Available   bool                `gorm:"not null;index"`
	Featured    bool                `gorm:"not null;index"`
	CreatedAt   time.Time           `gorm:"not null;index"`
	UpdatedAt   time.Time
}

func (productRow) TableName() string { return "products" }

type orderRow struct {
	ID                  string              `gorm:"primaryKey;type:varchar(36)"`
	UserID              string              `gorm:"type:varchar(36);not null;index"`
	Status              string              `gorm:"type:varchar(20);not null;index"`
	TotalAmount         decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	DeliveryFee         decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	PaymentMethod       string              `gorm:"type:varchar(20);not null"`
	ChangeNeeded        decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	DeliveryAddress     models.Address      `gorm:"embedded;embeddedPrefix:address_"`
	Items               []orderItemRow      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time           `gorm:"not null;index"`
	UpdatedAt           time.Time           `gorm:"not null"`
	EstimatedDeliveryAt *time.Time
	DeliveredAt         *time.Time
	Version             int `gorm:"not null"`
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID           uint            `gorm:"primaryKey"`
	OrderID      string          `gorm:"type:varchar(36);not null;index"`
	Position     int             `gorm:"not null"`
	ProductID    string          `gorm:"type:varchar(36);not null"`
	ProductName  string          `gorm:"type:varchar(255);not null"`
	Quantity     int             `gorm:"not null"`
	Size         *string         `gorm:"type:varchar(10)"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Observations string          `gorm:"type:text"`
}

func (orderItemRow) TableName() string { return "order_items" }

type userRow struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	Name         string         `gorm:"type:varchar(255);not null"`
	Email        string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string         `gorm:"type:varchar(255);not null"`
	Phone        string         `gorm:"type:varchar(32)"`
	Address      models.Address `gorm:"embedded;embeddedPrefix:address_"`
	Role         string         `gorm:"type:varchar(10);not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func productToRow(p *models.Product) productRow {
	row := productRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		Image:       p.Image,
		Available:   p.Available,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
	}
	switch d := p.Details.(type) {
	case models.PizzaDetails:
		row.Ingredients = d.Ingredients
		row.Sizes = d.Sizes
	case models.FlatPrice:
		row.Price = decimal.NewNullDecimal(d.Price)
	}
	return row
}

func rowToProduct(row productRow) models.Product {
	var price *decimal.Decimal
	if row.Price.Valid {
		price = &row.Price.Decimal
	}
	category := models.Category(row.Category)
	return models.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Category:    category,
		Image:       row.Image,
		Available:   row.Available,
		Featured:    row.Featured,
		CreatedAt:   row.CreatedAt,
		Details:     models.NewProductDetails(category, row.Ingredients, row.Sizes, price),
	}
}

func orderToRow(o *models.Order) orderRow {
	method, change := models.PaymentFields(o.Payment)
	row := orderRow{
		ID:                  o.ID,
		UserID:              o.UserID,
		Status:              string(o.Status),
		TotalAmount:         o.TotalAmount,
		DeliveryFee:         o.DeliveryFee,
		PaymentMethod:       string(method),
		DeliveryAddress:     o.DeliveryAddress,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		DeliveredAt:         o.DeliveredAt,
		Version:             o.Version,
	}
	if change != nil {
		row.ChangeNeeded = decimal.NewNullDecimal(*change)
	}
	for i, item := range o.Items {
		var size *string
		if item.Size != nil {
			s := string(*item.Size)
			size = &s
		}
		row.Items = append(row.Items, orderItemRow{
			OrderID:      o.ID,
			Position:     i,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			Size:         size,
			Price:        item.Price,
			Observations: item.Observations,
		})
	}
	return row
}

func rowToOrder(row orderRow) models.Order {
	order := models.Order{
		ID:                  row.ID,
		UserID:              row.UserID,
		Status:              models.OrderStatus(row.Status),
		TotalAmount:         row.TotalAmount,
		DeliveryAddress:     row.DeliveryAddress,
		DeliveryFee:         row.DeliveryFee,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
		EstimatedDeliveryAt: row.EstimatedDeliveryAt,
		DeliveredAt:         row.DeliveredAt,
		Version:             row.Version,
		Items:               make([]models.OrderItem, 0, len(row.Items)),
	}

	var change *decimal.Decimal
	if row.ChangeNeeded.Valid {
		change = &row.ChangeNeeded.Decimal
	}
	if p, err := models.NewPayment(models.PaymentMethod(row.PaymentMethod), change); err == nil {
		order.Payment = p
	}

	for _, item := range row.Items {
		var size *models.SizeName
		if item.Size != nil {
			s := models.SizeName(*item.Size)
			size = &s
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			Size:         size,
			Price:        item.Price,
			Observations: item.Observations,
		})
	}
	return order
}

func userToRow(u *models.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        models.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Address:      u.Address,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func rowToUser(row userRow) models.User {
	return models.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Phone:        row.Phone,
		Address:      row.Address,
		Role:         models.Role(row.Role),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
