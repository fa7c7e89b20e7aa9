package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
)

// Store is the relational adapter behind the service ports. It works with
// any GORM dialect the app is configured for.
type Store struct {
	db *gorm.DB
}

var _ services.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return services.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return services.ErrDuplicateEmail
	}
	return err
}

// exists is used after an update touched no rows, which on MySQL also happens
// when nothing changed.
func (s *Store) exists(ctx context.Context, model interface{}, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Products

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	row := productToRow(p)
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var row productRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	product := rowToProduct(row)
	return &product, nil
}

func (s *Store) ListProducts(ctx context.Context, filter services.ProductFilter) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&productRow{})
	if filter.Category != nil {
		query = query.Where("category = ?", string(*filter.Category))
	}
	if filter.Available != nil {
		query = query.Where("available = ?", *filter.Available)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}

	var rows []productRow
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, rowToProduct(row))
	}
	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	row := productToRow(p)
	res := s.db.WithContext(ctx).Model(&productRow{ID: p.ID}).
		Select("*").Omit("id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		found, err := s.exists(ctx, &productRow{}, p.ID)
		if err != nil {
			return err
		}
		if !found {
			return services.ErrNotFound
		}
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

// Orders

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	row := orderToRow(o)
	// Create saves the items association in the same transaction.
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate(err)
	}
	o.Version = row.Version
	return nil
}

func (s *Store) preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var row orderRow
	if err := s.preloadItems(s.db.WithContext(ctx)).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	order := rowToOrder(row)
	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context, filter services.OrderFilter) ([]models.Order, error) {
	query := s.preloadItems(s.db.WithContext(ctx).Model(&orderRow{}))
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var rows []orderRow
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, rowToOrder(row))
	}
	return orders, nil
}

// UpdateOrder writes the mutable order fields. Line items never change after
// creation.
func (s *Store) UpdateOrder(ctx context.Context, o *models.Order, expectedVersion int) error {
	res := s.db.WithContext(ctx).Model(&orderRow{}).
		Where("id = ? AND version = ?", o.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                string(o.Status),
			"estimated_delivery_at": o.EstimatedDeliveryAt,
			"delivered_at":          o.DeliveredAt,
			"updated_at":            o.UpdatedAt,
			"version":               expectedVersion + 1,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		found, err := s.exists(ctx, &orderRow{}, o.ID)
		if err != nil {
			return err
		}
		if !found {
			return services.ErrNotFound
		}
		return services.ErrVersionConflict
	}
	o.Version = expectedVersion + 1
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	row := userToRow(u)
	tx := s.db.WithContext(ctx).Begin()

	var count int64
	if err := tx.Model(&userRow{}).Where("email = ?", row.Email).Count(&count).Error; err != nil {
		tx.Rollback()
		return err
	}
	if count > 0 {
		tx.Rollback()
		return services.ErrDuplicateEmail
	}
	if err := tx.Create(&row).Error; err != nil {
		tx.Rollback()
		return translate(err)
	}
	return tx.Commit().Error
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	user := rowToUser(row)
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).First(&row, "email = ?", models.NormalizeEmail(email)).Error
	if err != nil {
		return nil, translate(err)
	}
	user := rowToUser(row)
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, rowToUser(row))
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	row := userToRow(u)
	res := s.db.WithContext(ctx).Model(&userRow{ID: u.ID}).
		Select("*").Omit("id", "email", "created_at").
		Updates(&row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		found, err := s.exists(ctx, &userRow{}, u.ID)
		if err != nil {
			return err
		}
		if !found {
			return services.ErrNotFound
		}
	}
	return nil
}
