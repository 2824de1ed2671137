package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/rentstack/rentstack/internal/account/domain"
	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/delivery"
	notificationservice "github.com/rentstack/rentstack/internal/notification/service"
	"github.com/rentstack/rentstack/internal/providers/email"
	"github.com/rentstack/rentstack/internal/providers/pdf"
	settlementdomain "github.com/rentstack/rentstack/internal/settlement/domain"
	settlementrepo "github.com/rentstack/rentstack/internal/settlement/repository"
	settlementservice "github.com/rentstack/rentstack/internal/settlement/service"
	tokendomain "github.com/rentstack/rentstack/internal/token/domain"
	tokenservice "github.com/rentstack/rentstack/internal/token/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeAccountService struct {
	accounts map[string]*accountdomain.Account
}

func (f *fakeAccountService) Register(_ context.Context, email, password, firstName, lastName string) (*accountdomain.Account, error) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	account := &accountdomain.Account{
		ID:           snowflake.ID(100),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
	}
	f.accounts[email] = account
	return account, nil
}

func (f *fakeAccountService) VerifyCredentials(_ context.Context, email, password string) (*accountdomain.Account, error) {
	account, ok := f.accounts[email]
	if !ok {
		return nil, accountdomain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, accountdomain.ErrInvalidCredentials
	}
	return account, nil
}

type stubMessenger struct {
	mu    sync.Mutex
	sends int
}

func (m *stubMessenger) SendTemplate(_ context.Context, _, _, _ string, _ []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends++
	return fmt.Sprintf("wamid.stub.%d", m.sends), nil
}

func (m *stubMessenger) SendText(_ context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends++
	return fmt.Sprintf("wamid.stub.%d", m.sends), nil
}

type memoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func (s *memoryTokenStore) Save(_ context.Context, jti, identity string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = identity
	return nil
}

func (s *memoryTokenStore) Consume(_ context.Context, jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.entries[jti]
	if !ok {
		return "", tokendomain.ErrTokenRevoked
	}
	delete(s.entries, jti)
	return identity, nil
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment:   "test",
		AuthJWTSecret: "test-secret",
		Tokens: config.TokenConfig{
			AccessTTL:      15 * time.Minute,
			RefreshTTL:     12 * time.Hour,
			ApplicationTTL: time.Hour,
			ResetTTL:       5 * time.Minute,
		},
		WhatsApp: config.WhatsAppConfig{
			TemplateLanguage:   "fr",
			WebhookVerifyToken: "hook-secret",
			RequestTimeoutSec:  2,
		},
		DefaultLocale:   "en",
		DefaultCurrency: "EUR",
	}

	logger := zap.NewNop()
	tracker := delivery.NewTracker(logger)
	dispatcher := notificationservice.NewDispatcher(notificationservice.Params{
		Log:       logger,
		Cfg:       cfg,
		Messenger: &stubMessenger{},
		Tracker:   tracker,
	})
	issuer := tokenservice.NewIssuer(tokenservice.Params{
		Log:   logger,
		Cfg:   cfg,
		Store: &memoryTokenStore{entries: map[string]string{}},
	})

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&settlementdomain.BillingTerm{},
		&settlementdomain.ChargeLine{},
		&settlementdomain.DiscountLine{},
		&settlementdomain.DebtLine{},
		&settlementdomain.PaymentLine{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	settlementSvc := settlementservice.NewService(settlementservice.Params{
		DB:    db,
		Log:   logger,
		GenID: node,
		Repo:  settlementrepo.Provide(),
	})

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:           r,
		Cfg:           cfg,
		Log:           logger,
		AccountSvc:    &fakeAccountService{accounts: map[string]*accountdomain.Account{}},
		SettlementSvc: settlementSvc,
		Dispatcher:    dispatcher,
		Tracker:       tracker,
		Issuer:        issuer,
		PDF:           &pdf.NoOpProvider{},
		Email:         &email.NoOpProvider{},
	})
	return srv, r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
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
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookHandshake(t *testing.T) {
	_, r := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/webhook?hub.mode=subscribe&hub.verify_token=hook-secret&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())
}

func TestWebhookHandshakeWrongToken(t *testing.T) {
	_, r := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookStatusUpdateFlow(t *testing.T) {
	srv, r := newTestServer(t)
	srv.tracker.RecordSent("wamid.flow.1", "33600000001")

	payload := map[string]any{
		"object": "whatsapp_business_account",
		"entry": []any{map[string]any{
			"changes": []any{map[string]any{
				"value": map[string]any{
					"statuses": []any{map[string]any{
						"id":        "wamid.flow.1",
						"status":    "delivered",
						"timestamp": "1767225600",
					}},
				},
			}},
		}},
	}
	w := doJSON(t, r, http.MethodPost, "/api/v1/webhook", payload)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/message-status/wamid.flow.1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var record delivery.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, delivery.StatusDelivered, record.Status)
	assert.Equal(t, "33600000001", record.RecipientID)
}

func TestMessageStatusUnknownID(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/message-status/wamid.ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendInvoiceSkippedWhenNothingDue(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/send-invoice", map[string]any{
		"messageType": "invoice",
		"tenant":      map[string]any{"name": "Jean Martin", "phones": []string{"+33 6 00 00 00 01"}},
		"term":        202603,
		"balance":     -150.0,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "skipped", resp["status"])
	assert.Equal(t, "no payment due", resp["reason"])
}

func TestSendInvoiceDispatches(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/send-invoice", map[string]any{
		"messageType": "rentcall",
		"tenant":      map[string]any{"name": "Jean Martin", "phones": []string{"+33 6 00 00 00 01"}},
		"term":        202603,
		"currency":    "EUR",
		"balance":     450.0,
		"dueDate":     "2026-03-05T00:00:00Z",
		"link":        "https://app.example.com/tenants",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "rentcall", result["message_type"])
	assert.Equal(t, float64(1), result["api_successes"])
}

func TestSendInvoiceUnknownType(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/send-invoice", map[string]any{
		"messageType": "carrier-pigeon",
		"tenant":      map[string]any{"name": "Jean Martin", "phones": []string{"+33600000001"}},
		"balance":     100.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSigninAndRefresh(t *testing.T) {
	srv, r := newTestServer(t)
	_, err := srv.accountSvc.Register(context.Background(), "owner@example.com", "s3cret", "Jean", "Martin")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/api/v1/signin", map[string]string{
		"email":    "owner@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var pair tokendomain.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	w = doJSON(t, r, http.MethodPost, "/api/v1/refreshtoken", map[string]string{
		"refreshToken": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// replaying the spent refresh token must fail
	w = doJSON(t, r, http.MethodPost, "/api/v1/refreshtoken", map[string]string{
		"refreshToken": pair.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSigninWrongPassword(t *testing.T) {
	srv, r := newTestServer(t)
	_, err := srv.accountSvc.Register(context.Background(), "owner@example.com", "s3cret", "Jean", "Martin")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/api/v1/signin", map[string]string{
		"email":    "owner@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTermLifecycleOverHTTP(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/terms", map[string]any{
		"tenantId": "7000",
		"term":     202603,
		"currency": "EUR",
		"charges":  []map[string]any{{"description": "Rent March", "amount": 1000}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created termResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, settlementdomain.StateUnpaid, created.State)
	assert.Equal(t, 1000.0, created.Balance)

	w = doJSON(t, r, http.MethodPost, "/api/v1/terms/7000/202603/payments", map[string]any{
		"amount": 600,
		"method": "transfer",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated termResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, settlementdomain.StatePartiallyPaid, updated.State)
	assert.Equal(t, 400.0, updated.Balance)

	w = doJSON(t, r, http.MethodGet, "/api/v1/terms/7000/209913", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
