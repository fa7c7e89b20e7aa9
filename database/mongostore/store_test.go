package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/pizzeria-app/database/mongostore"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
)

// setupTestStore connects to MONGO_TEST_URI and uses a throwaway database.
func setupTestStore(t *testing.T) *mongostore.Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := mongostore.Connect(ctx, uri, "pizzeria_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func testOrder(userID string, created time.Time) *models.Order {
	large := models.SizeLarge
	return &models.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Items: []models.OrderItem{
			{ProductID: "p-1", ProductName: "Portuguesa", Quantity: 1, Size: &large, Price: decimal.RequireFromString("54.90")},
		},
		Status:      models.StatusPending,
		TotalAmount: decimal.RequireFromString("59.90"),
		DeliveryAddress: models.Address{
			Street: "Av. Paulista", Number: "900", Neighborhood: "Bela Vista",
			City: "São Paulo", State: "SP", ZipCode: "01310-100",
		},
		Payment:     models.ElectronicPayment{Kind: models.PaymentPIX},
		DeliveryFee: decimal.RequireFromString("5"),
		CreatedAt:   created.Truncate(time.Millisecond),
		UpdatedAt:   created.Truncate(time.Millisecond),
	}
}

func TestOrderVersioning(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	order := testOrder("user-1", time.Now())
	require.NoError(t, store.CreateOrder(ctx, order))

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("59.90")))
	assert.Equal(t, models.PaymentPIX, got.Payment.Method())
	require.Len(t, got.Items, 1)
	assert.Equal(t, models.SizeLarge, *got.Items[0].Size)

	require.NoError(t, models.ApplyStatus(got, models.StatusConfirmed, time.Now()))
	require.NoError(t, store.UpdateOrder(ctx, got, 0))
	assert.Equal(t, 1, got.Version)

	assert.ErrorIs(t, store.UpdateOrder(ctx, order, 0), services.ErrVersionConflict)

	reloaded, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, reloaded.Status)
	assert.NotNil(t, reloaded.EstimatedDeliveryAt)
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	older := testOrder("user-1", base)
	newer := testOrder("user-1", base.Add(time.Minute))
	other := testOrder("user-2", base.Add(2*time.Minute))
	for _, o := range []*models.Order{older, newer, other} {
		require.NoError(t, store.CreateOrder(ctx, o))
	}

	mine, err := store.ListOrders(ctx, services.OrderFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, older.ID, mine[1].ID)
}

func TestDuplicateEmailIsRejected(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         "Bruno",
		Email:        "bruno@example.com",
		PasswordHash: "hash",
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	dup := *user
	dup.ID = uuid.NewString()
	dup.Email = "BRUNO@example.com"
	assert.ErrorIs(t, store.CreateUser(ctx, &dup), services.ErrDuplicateEmail)

	_, err := store.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestProductVariantsSurviveDecimal128(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        "Quatro Queijos",
		Description: "Four cheeses",
		Category:    models.CategoryPizza,
		Image:       "/uploads/products/queijos.jpg",
		Available:   true,
		CreatedAt:   time.Now().Truncate(time.Millisecond),
		Details: models.PizzaDetails{
			Ingredients: []string{"mozzarella", "gorgonzola", "parmesan", "catupiry"},
			Sizes:       []models.Size{{Name: models.SizeFamily, Price: decimal.RequireFromString("79.90")}},
		},
	}
	require.NoError(t, store.CreateProduct(ctx, product))

	got, err := store.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	details := got.Details.(models.PizzaDetails)
	assert.True(t, details.Sizes[0].Price.Equal(decimal.RequireFromString("79.90")))

	require.NoError(t, store.DeleteProduct(ctx, product.ID))
	assert.ErrorIs(t, store.DeleteProduct(ctx, product.ID), services.ErrNotFound)
}
