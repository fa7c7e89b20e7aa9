package services_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/pizzeria-app/database"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	utils.SetLogLevel("error")
	os.Exit(m.Run())
}

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

func newUserService(store services.UserStore) *services.UserService {
	tokens := utils.NewTokenManager("test-secret", "pizzeria-test", time.Hour)
	return services.NewUserService(store, tokens, services.WithBcryptCost(bcrypt.MinCost))
}

func testAddress() models.Address {
	return models.Address{
		Street:       "Rua dos Pinheiros",
		Number:       "320",
		Neighborhood: "Pinheiros",
		City:         "São Paulo",
		State:        "SP",
		ZipCode:      "05422-001",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sizePtr(s models.SizeName) *models.SizeName {
	return &s
}

// seedCatalog stores a pizza (Medium 10.00, Large 15.00), a drink at 5.00 and
// an unavailable side.
func seedCatalog(t *testing.T, store services.ProductStore) (pizza, drink, hidden *models.Product) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	pizza = &models.Product{
		ID: uuid.NewString(), Name: "Calabresa", Description: "Calabresa and onion",
		Category: models.CategoryPizza, Image: "/uploads/products/calabresa.jpg",
		Available: true, CreatedAt: now,
		Details: models.PizzaDetails{
			Ingredients: []string{"calabresa", "onion"},
			Sizes: []models.Size{
				{Name: models.SizeMedium, Price: dec("10")},
				{Name: models.SizeLarge, Price: dec("15")},
			},
		},
	}
	drink = &models.Product{
		ID: uuid.NewString(), Name: "Coke", Description: "Can",
		Category: models.CategoryDrink, Image: "/uploads/products/coke.jpg",
		Available: true, CreatedAt: now,
		Details: models.FlatPrice{Price: dec("5")},
	}
	hidden = &models.Product{
		ID: uuid.NewString(), Name: "Fries", Description: "Out of season",
		Category: models.CategorySide, Image: "/uploads/products/fries.jpg",
		Available: false, CreatedAt: now,
		Details: models.FlatPrice{Price: dec("9")},
	}
	for _, p := range []*models.Product{pizza, drink, hidden} {
		require.NoError(t, store.CreateProduct(ctx, p))
	}
	return pizza, drink, hidden
}

// registerUser creates a customer and returns it as a caller.
func registerUser(t *testing.T, users *services.UserService, email string) services.Caller {
	t.Helper()
	user, _, err := users.Register(context.Background(), services.RegisterInput{
		Name:     "Customer " + email,
		Email:    email,
		Password: "secret123",
		Phone:    "11988887777",
		Address:  testAddress(),
	})
	require.NoError(t, err)
	return services.Caller{UserID: user.ID, Role: user.Role}
}
