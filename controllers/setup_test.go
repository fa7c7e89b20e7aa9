package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/pizzeria-app/config"
	"github.com/yeremiapane/pizzeria-app/database"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/router"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	utils.SetLogLevel("error")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router     *gin.Engine
	app        *router.App
	uploadDir  string
	adminToken string
}

func testConfig(uploadDir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			AllowedOrigin:  "*",
			RequestTimeout: 5 * time.Second,
			RateLimit:      1000,
			RateInterval:   1,
			AuthRateLimit:  1000,
		},
		Auth: config.AuthConfig{
			JWTSecret: "controller-test-secret",
			Issuer:    "pizzeria-test",
			TokenTTL:  time.Hour,
		},
		Orders:  config.OrderConfig{DeliveryFee: decimal.RequireFromString("5")},
		Uploads: config.UploadConfig{Dir: uploadDir, MaxSize: 5 << 20},
	}
}

func setupTestServer(t *testing.T) *testServer {
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

	uploadDir := t.TempDir()
	app := router.NewApp(testConfig(uploadDir), store, services.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, app.Users.EnsureAdmin(context.Background(), "Admin", "admin@pizzeria.com", "admin123"))
	_, adminToken, err := app.Users.Authenticate(context.Background(), "admin@pizzeria.com", "admin123")
	require.NoError(t, err)

	return &testServer{
		router:     router.SetupRouter(app),
		app:        app,
		uploadDir:  uploadDir,
		adminToken: adminToken,
	}
}

type envelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Retryable bool            `json:"retryable"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func decodeData(t *testing.T, resp envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, out), string(resp.Data))
}

func addressPayload() map[string]interface{} {
	return map[string]interface{}{
		"street":       "Rua Oscar Freire",
		"number":       "500",
		"neighborhood": "Jardins",
		"city":         "São Paulo",
		"state":        "SP",
		"zipCode":      "01426-001",
	}
}

// register signs up a customer through the API and returns its token and id.
func (s *testServer) register(t *testing.T, email string) (token, userID string) {
	t.Helper()
	code, resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name":     "Cliente",
		"email":    email,
		"password": "secret123",
		"phone":    "11955554444",
		"address":  addressPayload(),
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var data struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeData(t, resp, &data)
	return data.Token, data.User.ID
}

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func multipartRequest(t *testing.T, method, path string, fields map[string]string, filename string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pizzaFields() map[string]string {
	return map[string]string{
		"name":        "Margherita",
		"description": "Tomato, mozzarella and basil",
		"category":    "Pizza",
		"ingredients": `["tomato","mozzarella","basil"]`,
		"sizes":       `[{"name":"Medium","price":10},{"name":"Large","price":15}]`,
	}
}

// createProduct adds a product as admin and returns its id.
func (s *testServer) createProduct(t *testing.T, fields map[string]string) string {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/products", fields, "photo.png", pngBytes)
	code, resp := s.send(t, req, s.adminToken)
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var product models.Product
	decodeData(t, resp, &product)
	return product.ID
}

func newRecorder(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}
