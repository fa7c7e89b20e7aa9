package mongostore

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yeremiapane/pizzeria-app/models"
)

type sizeDoc struct {
	Name  string               `bson:"name"`
	Price primitive.Decimal128 `bson:"price"`
}

type productDoc struct {
	ID          string                `bson:"_id"`
	Name        string                `bson:"name"`
	Description string                `bson:"description"`
	Category    string                `bson:"category"`
	Ingredients []string              `bson:"ingredients,omitempty"`
	Sizes       []sizeDoc             `bson:"sizes,omitempty"`
	Price       *primitive.Decimal128 `bson:"price,omitempty"`
	Image       string                `bson:"image"`
	Available   bool                  `bson:"available"`
	Featured    bool                  `bson:"featured"`
	CreatedAt   time.Time             `bson:"created_at"`
	UpdatedAt   time.Time             `bson:"updated_at"`
}

type orderItemDoc struct {
	Product      string               `bson:"product"`
	ProductName  string               `bson:"product_name"`
	Quantity     int                  `bson:"quantity"`
	Size         string               `bson:"size,omitempty"`
	Price        primitive.Decimal128 `bson:"price"`
	Observations string               `bson:"observations,omitempty"`
}

type orderDoc struct {
	ID                  string                `bson:"_id"`
	User                string                `bson:"user"`
	Items               []orderItemDoc        `bson:"items"`
	Status              string                `bson:"status"`
	TotalAmount         primitive.Decimal128  `bson:"total_amount"`
	DeliveryAddress     models.Address        `bson:"delivery_address"`
	PaymentMethod       string                `bson:"payment_method"`
	ChangeNeeded        *primitive.Decimal128 `bson:"change_needed,omitempty"`
	DeliveryFee         primitive.Decimal128  `bson:"delivery_fee"`
	CreatedAt           time.Time             `bson:"created_at"`
	UpdatedAt           time.Time             `bson:"updated_at"`
	EstimatedDeliveryAt *time.Time            `bson:"estimated_delivery_time,omitempty"`
	DeliveredAt         *time.Time            `bson:"delivered_at,omitempty"`
	Version             int                   `bson:"version"`
}

type userDoc struct {
	ID           string         `bson:"_id"`
	Name         string         `bson:"name"`
	Email        string         `bson:"email"`
	PasswordHash string         `bson:"password"`
	Phone        string         `bson:"phone"`
	Address      models.Address `bson:"address"`
	Role         string         `bson:"role"`
	CreatedAt    time.Time      `bson:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func productToDoc(p *models.Product) productDoc {
	doc := productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		Image:       p.Image,
		Available:   p.Available,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   time.Now(),
	}
	switch d := p.Details.(type) {
	case models.PizzaDetails:
		doc.Ingredients = d.Ingredients
		for _, s := range d.Sizes {
			doc.Sizes = append(doc.Sizes, sizeDoc{Name: string(s.Name), Price: toDecimal128(s.Price)})
		}
	case models.FlatPrice:
		price := toDecimal128(d.Price)
		doc.Price = &price
	}
	return doc
}

func docToProduct(doc productDoc) models.Product {
	var sizes []models.Size
	for _, s := range doc.Sizes {
		sizes = append(sizes, models.Size{Name: models.SizeName(s.Name), Price: fromDecimal128(s.Price)})
	}
	var price *decimal.Decimal
	if doc.Price != nil {
		p := fromDecimal128(*doc.Price)
		price = &p
	}
	category := models.Category(doc.Category)
	return models.Product{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    category,
		Image:       doc.Image,
		Available:   doc.Available,
		Featured:    doc.Featured,
		CreatedAt:   doc.CreatedAt,
		Details:     models.NewProductDetails(category, doc.Ingredients, sizes, price),
	}
}

func orderToDoc(o *models.Order) orderDoc {
	method, change := models.PaymentFields(o.Payment)
	doc := orderDoc{
		ID:                  o.ID,
		User:                o.UserID,
		Items:               make([]orderItemDoc, 0, len(o.Items)),
		Status:              string(o.Status),
		TotalAmount:         toDecimal128(o.TotalAmount),
		DeliveryAddress:     o.DeliveryAddress,
		PaymentMethod:       string(method),
		DeliveryFee:         toDecimal128(o.DeliveryFee),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		DeliveredAt:         o.DeliveredAt,
		Version:             o.Version,
	}
	if change != nil {
		c := toDecimal128(*change)
		doc.ChangeNeeded = &c
	}
	for _, item := range o.Items {
		var size string
		if item.Size != nil {
			size = string(*item.Size)
		}
		doc.Items = append(doc.Items, orderItemDoc{
			Product:      item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			Size:         size,
			Price:        toDecimal128(item.Price),
			Observations: item.Observations,
		})
	}
	return doc
}

func docToOrder(doc orderDoc) models.Order {
	order := models.Order{
		ID:                  doc.ID,
		UserID:              doc.User,
		Items:               make([]models.OrderItem, 0, len(doc.Items)),
		Status:              models.OrderStatus(doc.Status),
		TotalAmount:         fromDecimal128(doc.TotalAmount),
		DeliveryAddress:     doc.DeliveryAddress,
		DeliveryFee:         fromDecimal128(doc.DeliveryFee),
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
		EstimatedDeliveryAt: doc.EstimatedDeliveryAt,
		DeliveredAt:         doc.DeliveredAt,
		Version:             doc.Version,
	}

	var change *decimal.Decimal
	if doc.ChangeNeeded != nil {
		c := fromDecimal128(*doc.ChangeNeeded)
		change = &c
	}
	if p, err := models.NewPayment(models.PaymentMethod(doc.PaymentMethod), change); err == nil {
		order.Payment = p
	}

	for _, item := range doc.Items {
		var size *models.SizeName
		if item.Size != "" {
			s := models.SizeName(item.Size)
			size = &s
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    item.Product,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			Size:         size,
			Price:        fromDecimal128(item.Price),
			Observations: item.Observations,
		})
	}
	return order
}

func userToDoc(u *models.User) userDoc {
	return userDoc{
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

func docToUser(doc userDoc) models.User {
	return models.User{
		ID:           doc.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Phone:        doc.Phone,
		Address:      doc.Address,
		Role:         models.Role(doc.Role),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}
