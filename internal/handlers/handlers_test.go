package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	_ "github.com/GlebRadaev/pointsbank/docs"
	"github.com/GlebRadaev/pointsbank/internal/config"
	"github.com/GlebRadaev/pointsbank/internal/events"
	"github.com/GlebRadaev/pointsbank/internal/pg"
	"github.com/GlebRadaev/pointsbank/internal/purchase"
	"github.com/GlebRadaev/pointsbank/internal/repo"
	"github.com/GlebRadaev/pointsbank/internal/service"
	"github.com/GlebRadaev/pointsbank/internal/service/authservice"
	"github.com/GlebRadaev/pointsbank/internal/service/ledgerservice"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repos := &repo.Repositories{
		UserRepo:     authservice.NewMockRepo(ctrl),
		LedgerRepo:   ledgerservice.NewMockLedgerRepo(ctrl),
		PurchaseRepo: purchase.NewMockRepo(ctrl),
	}
	cfg := &config.Config{ProviderAddress: "http://localhost:8081"}
	services := service.New(cfg, repos, pg.NewMockTXManager(ctrl), events.NewNotifier())

	h := New(services, "secret")
	assert.NotNil(t, h, "Handlers should not be nil")
}

func TestInitRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuthHandler := NewMockAuthHandler(ctrl)
	mockBalanceHandler := NewMockBalanceHandler(ctrl)
	mockPurchaseHandler := NewMockPurchaseHandler(ctrl)
	mockAdminHandler := NewMockAdminHandler(ctrl)

	mockAuthHandler.EXPECT().Register(gomock.Any(), gomock.Any()).AnyTimes()
	mockAuthHandler.EXPECT().Login(gomock.Any(), gomock.Any()).AnyTimes()
	mockBalanceHandler.EXPECT().GetBalance(gomock.Any(), gomock.Any()).AnyTimes()
	mockBalanceHandler.EXPECT().GetHistory(gomock.Any(), gomock.Any()).AnyTimes()
	mockBalanceHandler.EXPECT().Spend(gomock.Any(), gomock.Any()).AnyTimes()
	mockPurchaseHandler.EXPECT().AddPurchase(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().AddPoints(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().SubtractPoints(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().SetBalance(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().BulkUpdate(gomock.Any(), gomock.Any()).AnyTimes()

	h := &Handlers{
		AuthHandler:     mockAuthHandler,
		BalanceHandler:  mockBalanceHandler,
		PurchaseHandler: mockPurchaseHandler,
		AdminHandler:    mockAdminHandler,
		adminToken:      "secret",
	}

	router := chi.NewRouter()
	h.InitRoutes(router)

	tests := []struct {
		name   string
		method string
		url    string
		token  string
		status int
	}{
		{"register is open", "POST", "/api/user/register", "", http.StatusOK},
		{"login is open", "POST", "/api/user/login", "", http.StatusOK},
		{"balance requires auth", "GET", "/api/user/balance", "", http.StatusUnauthorized},
		{"history requires auth", "GET", "/api/user/balance/history", "", http.StatusUnauthorized},
		{"spend requires auth", "POST", "/api/user/balance/spend", "", http.StatusUnauthorized},
		{"purchase requires auth", "POST", "/api/user/purchase", "", http.StatusUnauthorized},
		{"admin add requires token", "POST", "/api/admin/points/add", "", http.StatusForbidden},
		{"admin subtract requires token", "POST", "/api/admin/points/subtract", "", http.StatusForbidden},
		{"admin set requires token", "POST", "/api/admin/points/set", "", http.StatusForbidden},
		{"admin bulk requires token", "POST", "/api/admin/points/bulk", "", http.StatusForbidden},
		{"wrong admin token", "POST", "/api/admin/points/add", "other", http.StatusForbidden},
		{"valid admin token", "POST", "/api/admin/points/add", "secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			if tt.token != "" {
				req.Header.Set("X-Admin-Token", tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
