package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	billingapp "github.com/waterbill/backend/internal/application/billing"
	identityapp "github.com/waterbill/backend/internal/application/identity"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared/valueobject"
	"github.com/waterbill/backend/internal/infrastructure/auth"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"github.com/waterbill/backend/internal/infrastructure/export"
	"github.com/waterbill/backend/internal/infrastructure/lock"
	"github.com/waterbill/backend/internal/infrastructure/persistence"
	"github.com/waterbill/backend/internal/infrastructure/printing"
	"github.com/waterbill/backend/internal/infrastructure/storage"
	"github.com/waterbill/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

const testPassword = "correct-horse-battery"

var testCompany = config.CompanyConfig{
	Name:    "Tirta Utility",
	Address: "Jl. Air Bersih 7",
	Phone:   "021-555-0100",
	Locale:  "id-ID",
}

// testServer is the full HTTP stack over a file-backed sqlite database
type testServer struct {
	engine    *gin.Engine
	db        *persistence.Database
	jwt       *auth.JWTService
	users     *persistence.GormUserRepository
	exportDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	dsn := filepath.Join(t.TempDir(), "waterbill.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := persistence.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	customers := persistence.NewGormCustomerRepository(db.DB)
	tariffs := persistence.NewGormTariffRepository(db.DB)
	assignments := persistence.NewGormTariffAssignmentRepository(db.DB)
	readings := persistence.NewGormReadingRepository(db.DB)
	bills := persistence.NewGormBillRepository(db.DB)
	transactions := persistence.NewGormTransactionRepository(db.DB)
	users := persistence.NewGormUserRepository(db.DB)

	authz := billingapp.NewAuthorizer(nil, nil, logger)
	resolver := billing.NewTariffResolver(customers, tariffs, assignments)
	calculator := billing.NewCalculator(valueobject.IDR, -1)

	exportDir := t.TempDir()
	store, err := storage.NewLocalObjectStorage(exportDir)
	require.NoError(t, err)
	renderer, err := printing.NewReceiptRenderer(testCompany.Locale)
	require.NoError(t, err)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-with-enough-bytes",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "waterbill-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	authHandler := NewAuthHandler(identityapp.NewAuthService(users, jwtService, blacklist, logger))
	customerHandler := NewCustomerHandler(billingapp.NewCustomerService(customers, tariffs, assignments, authz, logger))
	tariffHandler := NewTariffHandler(billingapp.NewTariffService(tariffs, resolver, calculator, authz, nil, logger))
	readingHandler := NewReadingHandler(billingapp.NewReadingService(customers, readings, authz, logger))
	billHandler := NewBillHandler(
		billingapp.NewBillService(billingapp.BillServiceDeps{
			Customers:    customers,
			Readings:     readings,
			Bills:        bills,
			Transactions: transactions,
			Resolver:     resolver,
			Calculator:   calculator,
			Locker:       lock.NewMemoryLocker(time.Second),
			Authorizer:   authz,
			Logger:       logger,
		}),
		billingapp.NewReceiptService(bills, transactions, customers, renderer, nil, testCompany, authz, logger),
	)
	ledgerHandler := NewLedgerHandler(billingapp.NewLedgerService(
		persistence.NewGormLedgerRepository(db), transactions,
		export.NewLedgerExporter(store, logger), string(valueobject.IDR), authz, logger,
	))
	systemHandler := NewSystemHandler(db, testCompany, "test")

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = blacklist

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", systemHandler.Health)
	api := engine.Group("/api/v1", middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.RefreshToken)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.GetCurrentUser)
	api.GET("/settings/company", systemHandler.CompanySettings)
	api.GET("/public/bills/unpaid", billHandler.LookupUnpaid)
	api.POST("/customers", customerHandler.Create)
	api.GET("/customers", customerHandler.List)
	api.GET("/customers/:id", customerHandler.GetByID)
	api.PUT("/customers/:id", customerHandler.Update)
	api.POST("/customers/:id/tariff", customerHandler.AssignTariff)
	api.GET("/customers/:id/tariffs", customerHandler.TariffHistory)
	api.POST("/customers/:id/deactivate", customerHandler.Deactivate)
	api.POST("/customers/:id/activate", customerHandler.Activate)
	api.POST("/tariffs", tariffHandler.Create)
	api.GET("/tariffs", tariffHandler.List)
	api.GET("/tariffs/resolve", tariffHandler.Resolve)
	api.POST("/tariffs/compute", tariffHandler.Compute)
	api.GET("/tariffs/:id", tariffHandler.GetByID)
	api.PUT("/tariffs/:id", tariffHandler.Update)
	api.POST("/readings", readingHandler.Record)
	api.POST("/bills", billHandler.Create)
	api.GET("/bills", billHandler.List)
	api.GET("/bills/:id", billHandler.GetByID)
	api.POST("/bills/:id/pay", billHandler.Pay)
	api.POST("/bills/:id/cancel", billHandler.Cancel)
	api.GET("/bills/:id/receipt", billHandler.Receipt)
	api.GET("/bills/:id/transaction", billHandler.Transaction)
	api.GET("/ledger/summary", ledgerHandler.Summary)
	api.GET("/ledger/transactions", ledgerHandler.Transactions)
	api.POST("/ledger/export", ledgerHandler.Export)

	return &testServer{engine: engine, db: db, jwt: jwtService, users: users, exportDir: exportDir}
}

// createUser stores a user and returns an access token for it
func (s *testServer) createUser(t *testing.T, username string, role identity.Role, customerID *uuid.UUID) string {
	t.Helper()
	user, err := identity.NewUser(username, testPassword, role)
	require.NoError(t, err)
	user.CustomerID = customerID
	require.NoError(t, s.users.Create(context.Background(), user))

	pair, err := s.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:     user.ID,
		Username:   user.Username,
		Role:       role,
		CustomerID: customerID,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// data decodes the data field of a success response into out
func data(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

// seedCustomer creates the 10000 + 2500/m³ tariff and one customer on it
func (s *testServer) seedCustomer(t *testing.T, admin string) (tariffID, customerID uuid.UUID) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/tariffs", admin, gin.H{
		"name": "Household", "base_fee": "10000", "rate_per_cubic": "2500",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tariff billingapp.TariffResponse
	data(t, w, &tariff)

	w = s.do(t, http.MethodPost, "/api/v1/customers", admin, gin.H{
		"meter_number": "MTR-0042", "name": "Siti Rahma", "address": "Jl. Merdeka 1", "tariff_id": tariff.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var customer billingapp.CustomerResponse
	data(t, w, &customer)
	return tariff.ID, customer.ID
}

// seedBill records a 100 -> 115 reading for period and bills it
func (s *testServer) seedBill(t *testing.T, token string, customerID uuid.UUID, period string) billingapp.BillResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/readings", token, gin.H{
		"customer_id": customerID, "period": period, "previous_index": "100", "current_index": "115",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/bills", token, gin.H{"customer_id": customerID, "period": period})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var bill billingapp.BillResponse
	data(t, w, &bill)
	return bill
}
