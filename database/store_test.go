package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/pizzeria-app/database"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
)

func setupTestStore(t *testing.T) *database.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store := database.NewStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func testAddress() models.Address {
	return models.Address{
		Street:       "Rua Augusta",
		Number:       "1200",
		Neighborhood: "Consolação",
		City:         "São Paulo",
		State:        "SP",
		ZipCode:      "01304-001",
	}
}

func TestProductRoundTripKeepsVariant(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pizza := &models.Product{
		ID:          uuid.NewString(),
		Name:        "Margherita",
		Description: "Tomato, mozzarella, basil",
		Category:    models.CategoryPizza,
		Image:       "/uploads/products/margherita.jpg",
		Available:   true,
		CreatedAt:   time.Now().Add(-time.Hour),
		Details: models.PizzaDetails{
			Ingredients: []string{"tomato", "mozzarella", "basil"},
			Sizes: []models.Size{
				{Name: models.SizeMedium, Price: decimal.RequireFromString("38.90")},
				{Name: models.SizeLarge, Price: decimal.RequireFromString("49.90")},
			},
		},
	}
	soda := &models.Product{
		ID:          uuid.NewString(),
		Name:        "Guaraná",
		Description: "350ml can",
		Category:    models.CategoryDrink,
		Image:       "/uploads/products/guarana.jpg",
		Available:   false,
		Featured:    true,
		CreatedAt:   time.Now(),
		Details:     models.FlatPrice{Price: decimal.RequireFromString("6.50")},
	}
	require.NoError(t, store.CreateProduct(ctx, pizza))
	require.NoError(t, store.CreateProduct(ctx, soda))

	got, err := store.GetProduct(ctx, pizza.ID)
	require.NoError(t, err)
	details, ok := got.Details.(models.PizzaDetails)
	require.True(t, ok)
	assert.Equal(t, []string{"tomato", "mozzarella", "basil"}, details.Ingredients)
	require.Len(t, details.Sizes, 2)
	assert.True(t, details.Sizes[1].Price.Equal(decimal.RequireFromString("49.90")))

	got, err = store.GetProduct(ctx, soda.ID)
	require.NoError(t, err)
	flat, ok := got.Details.(models.FlatPrice)
	require.True(t, ok)
	assert.True(t, flat.Price.Equal(decimal.RequireFromString("6.50")))
	assert.False(t, got.Available)
	assert.True(t, got.Featured)

	all, err := store.ListProducts(ctx, services.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, soda.ID, all[0].ID, "newest first")

	available := true
	onlyAvailable, err := store.ListProducts(ctx, services.ProductFilter{Available: &available})
	require.NoError(t, err)
	require.Len(t, onlyAvailable, 1)
	assert.Equal(t, pizza.ID, onlyAvailable[0].ID)

	category := models.CategoryDrink
	drinks, err := store.ListProducts(ctx, services.ProductFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, drinks, 1)
	assert.Equal(t, "Guaraná", drinks[0].Name)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	side := &models.Product{
		ID:          uuid.NewString(),
		Name:        "Garlic bread",
		Description: "Six slices",
		Category:    models.CategorySide,
		Image:       "/uploads/products/bread.jpg",
		Available:   true,
		CreatedAt:   time.Now(),
		Details:     models.FlatPrice{Price: decimal.RequireFromString("12")},
	}
	require.NoError(t, store.CreateProduct(ctx, side))

	side.Available = false
	side.Details = models.FlatPrice{Price: decimal.RequireFromString("14.50")}
	require.NoError(t, store.UpdateProduct(ctx, side))

	got, err := store.GetProduct(ctx, side.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
	assert.True(t, got.Details.(models.FlatPrice).Price.Equal(decimal.RequireFromString("14.50")))

	missing := *side
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, store.UpdateProduct(ctx, &missing), services.ErrNotFound)

	require.NoError(t, store.DeleteProduct(ctx, side.ID))
	_, err = store.GetProduct(ctx, side.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, store.DeleteProduct(ctx, side.ID), services.ErrNotFound)
}

func newOrder(userID string, created time.Time) *models.Order {
	medium := models.SizeMedium
	return &models.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Items: []models.OrderItem{
			{ProductID: "p-1", ProductName: "Calabresa", Quantity: 2, Size: &medium, Price: decimal.RequireFromString("10")},
			{ProductID: "p-2", ProductName: "Coke", Quantity: 1, Price: decimal.RequireFromString("5"), Observations: "cold"},
		},
		Status:          models.StatusPending,
		TotalAmount:     decimal.RequireFromString("30"),
		DeliveryAddress: testAddress(),
		Payment:         models.CashPayment{ChangeNeeded: decimal.RequireFromString("50")},
		DeliveryFee:     decimal.RequireFromString("5"),
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestOrderRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	order := newOrder("user-1", time.Now())
	require.NoError(t, store.CreateOrder(ctx, order))

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Calabresa", got.Items[0].ProductName)
	require.NotNil(t, got.Items[0].Size)
	assert.Equal(t, models.SizeMedium, *got.Items[0].Size)
	assert.Nil(t, got.Items[1].Size)
	assert.Equal(t, "cold", got.Items[1].Observations)
	assert.Equal(t, testAddress(), got.DeliveryAddress)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("30")))

	cash, ok := got.Payment.(models.CashPayment)
	require.True(t, ok)
	assert.True(t, cash.ChangeNeeded.Equal(decimal.RequireFromString("50")))

	_, err = store.GetOrder(ctx, uuid.NewString())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestListOrdersNewestFirstWithFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	first := newOrder("user-1", base)
	second := newOrder("user-2", base.Add(time.Minute))
	third := newOrder("user-1", base.Add(2*time.Minute))
	third.Status = models.StatusConfirmed
	for _, o := range []*models.Order{first, second, third} {
		require.NoError(t, store.CreateOrder(ctx, o))
	}

	all, err := store.ListOrders(ctx, services.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := store.ListOrders(ctx, services.OrderFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)
	assert.Len(t, mine[0].Items, 2)

	confirmed, err := store.ListOrders(ctx, services.OrderFilter{Status: models.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, third.ID, confirmed[0].ID)
}

func TestUpdateOrderChecksVersion(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	order := newOrder("user-1", time.Now())
	require.NoError(t, store.CreateOrder(ctx, order))

	now := time.Now()
	require.NoError(t, models.ApplyStatus(order, models.StatusConfirmed, now))
	require.NoError(t, store.UpdateOrder(ctx, order, 0))
	assert.Equal(t, 1, order.Version)

	stale := newOrder("user-1", time.Now())
	stale.ID = order.ID
	stale.Status = models.StatusCancelled
	assert.ErrorIs(t, store.UpdateOrder(ctx, stale, 0), services.ErrVersionConflict)

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, 1, got.Version)
	require.NotNil(t, got.EstimatedDeliveryAt)
	assert.WithinDuration(t, now.Add(models.EstimatedDeliveryWindow), *got.EstimatedDeliveryAt, time.Second)

	missing := newOrder("user-1", time.Now())
	assert.ErrorIs(t, store.UpdateOrder(ctx, missing, 0), services.ErrNotFound)
}

func TestUserEmailIsUniqueIgnoringCase(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         "Ana",
		Email:        "Ana@Example.com ",
		PasswordHash: "hash",
		Phone:        "11999990000",
		Address:      testAddress(),
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUserByEmail(ctx, "ANA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, testAddress(), got.Address)

	dup := *user
	dup.ID = uuid.NewString()
	dup.Email = "ana@EXAMPLE.com"
	assert.ErrorIs(t, store.CreateUser(ctx, &dup), services.ErrDuplicateEmail)

	got.Role = models.RoleAdmin
	got.Name = "Ana Maria"
	require.NoError(t, store.UpdateUser(ctx, got))
	reloaded, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, reloaded.Role)
	assert.Equal(t, "Ana Maria", reloaded.Name)

	_, err = store.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, services.ErrNotFound)
}
