package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"tgwallet/internal/config"
	"tgwallet/internal/infrastructure/lock"
	"tgwallet/internal/metrics"
	"tgwallet/internal/model"
	"tgwallet/internal/repository/memory"
	"tgwallet/internal/telegram"
	"tgwallet/pkg/cryptocloud"
	"tgwallet/pkg/ipapi"
	"tgwallet/pkg/mocks"
	"tgwallet/pkg/phonecheck"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBotToken = "123456:TEST-TOKEN"

type testEnv struct {
	store        *memory.Store
	geo          *mocks.GeoLocator
	phones       *mocks.PhoneProvider
	gateway      *mocks.Gateway
	accounts     *AccountService
	catalog      *CatalogService
	purchases    *PurchaseService
	topUps       *TopUpService
	transactions *TransactionService
}

func newTestEnv(t *testing.T, topic string) *testEnv {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	locker := lock.NewLocalLocker()
	events := NewEventFactory(topic)
	cfg := &config.BusinessConfig{
		MinTopUpAmount:   decimal.NewFromInt(10),
		OperationTimeout: 2 * time.Second,
		InvoiceTTL:       time.Hour,
	}

	env := &testEnv{
		store:   store,
		geo:     &mocks.GeoLocator{},
		phones:  &mocks.PhoneProvider{},
		gateway: &mocks.Gateway{},
	}
	env.accounts = NewAccountService(store, telegram.NewVerifier(testBotToken, true, 0), m, logger)
	env.catalog = NewCatalogService(store)
	env.purchases = NewPurchaseService(store, locker, env.geo, env.phones, events, cfg, m, logger)
	env.topUps = NewTopUpService(store, locker, env.gateway, events, cfg, "", m, logger)
	env.transactions = NewTransactionService(store)

	require.NoError(t, env.catalog.Seed(context.Background()))
	return env
}

// fund creates the demo user and credits it through the top-up path.
func (e *testEnv) fund(t *testing.T, amount string) *model.User {
	t.Helper()
	ctx := context.Background()
	user, err := e.accounts.Authenticate(ctx, telegram.DemoPayload)
	require.NoError(t, err)
	if amount != "" {
		credited, err := e.topUps.Credit(ctx, user.ID, decimal.RequireFromString(amount), NewOrderID(user.ID, time.Now()))
		require.NoError(t, err)
		require.True(t, credited)
	}
	user, err = e.accounts.GetUser(ctx, user.ID)
	require.NoError(t, err)
	return user
}

func assertBalance(t *testing.T, e *testEnv, userID int64, want string) {
	t.Helper()
	user, err := e.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString(want).Equal(user.Balance), "balance %s, want %s", user.Balance, want)
}

func googleLookup() ipapi.LookupResult {
	return ipapi.LookupResult{
		Raw: json.RawMessage(`{"ip":"8.8.8.8","country_name":"United States","city":"Mountain View","org":"GOOGLE"}`),
		Location: ipapi.Location{
			IP:          "8.8.8.8",
			CountryName: "United States",
			City:        "Mountain View",
			Org:         "GOOGLE",
		},
	}
}

func TestAccountService_Authenticate(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	t.Run("demo payload creates the user once", func(t *testing.T) {
		first, err := env.accounts.Authenticate(ctx, "")
		require.NoError(t, err)
		second, err := env.accounts.Authenticate(ctx, telegram.DemoPayload)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, telegram.DemoIdentity.ID, first.TelegramID)
		assert.True(t, first.Balance.IsZero())
	})

	t.Run("signed payload", func(t *testing.T) {
		values := url.Values{}
		values.Set("auth_date", "1700000000")
		values.Set("user", `{"id":777,"first_name":"Ann","username":"ann"}`)

		user, err := env.accounts.Authenticate(ctx, telegram.SignedInitData(testBotToken, values))
		require.NoError(t, err)
		assert.Equal(t, int64(777), user.TelegramID)
		require.NotNil(t, user.Username)
		assert.Equal(t, "ann", *user.Username)
		assert.Nil(t, user.LastName)
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		values := url.Values{}
		values.Set("user", `{"id":777,"first_name":"Ann"}`)
		initData := telegram.SignedInitData("other-token", values)

		_, err := env.accounts.Authenticate(ctx, initData)
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidSignature, Code(err))
	})

	t.Run("signed payload without a usable user", func(t *testing.T) {
		for _, user := range []string{`{"id":0,"first_name":""}`, `{"id":5}`, `not json`, ``} {
			values := url.Values{}
			values.Set("auth_date", "1700000000")
			if user != "" {
				values.Set("user", user)
			}
			_, err := env.accounts.Authenticate(ctx, telegram.SignedInitData(testBotToken, values))
			require.Error(t, err, user)
			assert.Equal(t, ErrCodeValidation, Code(err), user)
			assert.ErrorIs(t, err, ErrInvalidUserData)
		}
	})

	t.Run("lookup by telegram id", func(t *testing.T) {
		user, err := env.accounts.GetUserByTelegramID(ctx, 777)
		require.NoError(t, err)
		assert.Equal(t, int64(777), user.TelegramID)

		_, err = env.accounts.GetUserByTelegramID(ctx, 1)
		assert.Equal(t, ErrCodeNotFound, Code(err))
	})
}

func TestCatalogService(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	require.NoError(t, env.catalog.Seed(ctx))
	services, err := env.catalog.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, model.ServiceKindIPCheck, services[0].Kind)
	assert.True(t, decimal.RequireFromString("0.2").Equal(services[0].Price))
	assert.Equal(t, model.ServiceKindPhoneCheck, services[1].Kind)
	assert.True(t, decimal.RequireFromString("0.25").Equal(services[1].Price))
}

func TestPurchaseService_BuyIPCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("debits the price and stores the check", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "50")
		env.geo.On("Lookup", mock.Anything, "8.8.8.8").Return(googleLookup(), nil).Once()

		resp, err := env.purchases.BuyIPCheck(ctx, &IPCheckRequest{UserID: user.ID, IPAddress: " 8.8.8.8 "})
		require.NoError(t, err)

		assert.True(t, decimal.RequireFromString("49.8").Equal(resp.UserBalance))
		require.NotNil(t, resp.IPCheck)
		assert.Equal(t, "8.8.8.8", resp.IPCheck.IPAddress)
		assert.Equal(t, "United States", *resp.IPCheck.Country)
		assert.Equal(t, "GOOGLE", *resp.IPCheck.ISP)
		assert.False(t, *resp.IPCheck.IsSpam)
		assert.JSONEq(t, string(googleLookup().Raw), string(resp.IPCheck.Details))
		assert.Equal(t, resp.TransactionID, resp.IPCheck.TransactionID)
		assertBalance(t, env, user.ID, "49.8")

		txn, err := env.store.GetTransaction(ctx, resp.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, model.TransactionTypePurchase, txn.Type)
		assert.True(t, decimal.RequireFromString("0.2").Equal(txn.Amount))
		env.geo.AssertExpectations(t)
	})

	t.Run("insufficient balance never calls the provider", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "")

		_, err := env.purchases.BuyIPCheck(ctx, &IPCheckRequest{UserID: user.ID, IPAddress: "8.8.8.8"})
		require.Error(t, err)
		assert.Equal(t, ErrCodeInsufficientBalance, Code(err))
		env.geo.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	})

	t.Run("invalid address", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "50")

		for _, ip := range []string{"", "999.1.1.1", "not-an-ip", "fe80::1%eth0"} {
			_, err := env.purchases.BuyIPCheck(ctx, &IPCheckRequest{UserID: user.ID, IPAddress: ip})
			assert.Equal(t, ErrCodeValidation, Code(err), ip)
		}
		assertBalance(t, env, user.ID, "50")
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t, "")
		_, err := env.purchases.BuyIPCheck(ctx, &IPCheckRequest{UserID: 99, IPAddress: "8.8.8.8"})
		assert.Equal(t, ErrCodeNotFound, Code(err))
	})

	t.Run("provider failure leaves the balance alone", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "50")
		env.geo.On("Lookup", mock.Anything, "1.1.1.1").Return(ipapi.LookupResult{}, ipapi.ErrRateLimited).Once()

		_, err := env.purchases.BuyIPCheck(ctx, &IPCheckRequest{UserID: user.ID, IPAddress: "1.1.1.1"})
		require.Error(t, err)
		assert.Equal(t, ErrCodeUpstream, Code(err))
		assertBalance(t, env, user.ID, "50")

		txns, err := env.transactions.ListTransactions(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, txns, 1)
	})
}

func TestPurchaseService_ConcurrentOverdraw(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	user := env.fund(t, "0.5")
	env.geo.On("Lookup", mock.Anything, "8.8.8.8").Return(googleLookup(), nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.purchases.BuyIPCheck(ctx, &IPCheckRequest{UserID: user.ID, IPAddress: "8.8.8.8"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if Code(err) == ErrCodeInsufficientBalance {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 3, rejected)
	assertBalance(t, env, user.ID, "0.1")
	env.geo.AssertNumberOfCalls(t, "Lookup", 2)
}

func TestPurchaseService_BuyPhoneCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the provider verdict", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "1")
		env.phones.On("Check", mock.Anything, "+79123456789").Return(phonecheck.Result{
			Country:    "Russia",
			Operator:   "MTS",
			Active:     true,
			FraudScore: 40,
		}, nil).Once()

		resp, err := env.purchases.BuyPhoneCheck(ctx, &PhoneCheckRequest{UserID: user.ID, PhoneNumber: "+7 912 3456789"})
		require.NoError(t, err)

		assert.True(t, decimal.RequireFromString("0.75").Equal(resp.UserBalance))
		assert.Equal(t, "+79123456789", resp.PhoneCheck.PhoneNumber)
		assert.Equal(t, 40, resp.PhoneCheck.FraudScore)
		assert.True(t, *resp.PhoneCheck.IsActive)
		assert.False(t, *resp.PhoneCheck.IsVirtual)
		assert.Contains(t, string(resp.PhoneCheck.Details), `"fraudScore":40`)
		env.phones.AssertExpectations(t)
	})

	t.Run("malformed number", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "1")

		_, err := env.purchases.BuyPhoneCheck(ctx, &PhoneCheckRequest{UserID: user.ID, PhoneNumber: "12ab"})
		assert.Equal(t, ErrCodeValidation, Code(err))
		env.phones.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("provider timeout", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "1")
		env.phones.On("Check", mock.Anything, mock.Anything).Return(phonecheck.Result{}, phonecheck.ErrTimeout).Once()

		_, err := env.purchases.BuyPhoneCheck(ctx, &PhoneCheckRequest{UserID: user.ID, PhoneNumber: "+79123456789"})
		assert.Equal(t, ErrCodeUpstream, Code(err))
		assertBalance(t, env, user.ID, "1")
	})
}

func TestPurchaseService_Purchase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")
	user := env.fund(t, "1")

	require.NoError(t, env.store.SeedServices(ctx, []*model.Service{
		{Kind: model.ServiceKindGeneric, Name: "Report", Price: decimal.RequireFromString("0.3"), Available: true},
		{Kind: model.ServiceKindGeneric, Name: "Retired", Price: decimal.RequireFromString("0.1"), Available: false},
	}))
	services, err := env.catalog.ListServices(ctx)
	require.NoError(t, err)
	byName := map[string]*model.Service{}
	for _, svc := range services {
		byName[svc.Name] = svc
	}

	t.Run("dedicated services are not debited here", func(t *testing.T) {
		ipService, err := env.store.GetServiceByKind(ctx, model.ServiceKindIPCheck)
		require.NoError(t, err)

		resp, err := env.purchases.Purchase(ctx, &PurchaseRequest{UserID: user.ID, ServiceID: ipService.ID})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Contains(t, resp.Message, "IP check endpoint")
		assert.Nil(t, resp.Transaction)
		assertBalance(t, env, user.ID, "1")
	})

	t.Run("generic service is debited", func(t *testing.T) {
		resp, err := env.purchases.Purchase(ctx, &PurchaseRequest{UserID: user.ID, ServiceID: byName["Report"].ID})
		require.NoError(t, err)
		require.NotNil(t, resp.Transaction)
		assert.Equal(t, "Report", resp.Transaction.Description)
		assert.True(t, decimal.RequireFromString("0.7").Equal(*resp.UserBalance))
	})

	t.Run("unavailable service", func(t *testing.T) {
		_, err := env.purchases.Purchase(ctx, &PurchaseRequest{UserID: user.ID, ServiceID: byName["Retired"].ID})
		assert.Equal(t, ErrCodeServiceUnavailable, Code(err))
	})

	t.Run("unknown service", func(t *testing.T) {
		_, err := env.purchases.Purchase(ctx, &PurchaseRequest{UserID: user.ID, ServiceID: 999})
		assert.Equal(t, ErrCodeNotFound, Code(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.purchases.Purchase(ctx, &PurchaseRequest{UserID: 999, ServiceID: byName["Report"].ID})
		assert.Equal(t, ErrCodeNotFound, Code(err))
	})
}

func TestTopUpService_CreateInvoice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")
	user := env.fund(t, "")
	fixed := time.UnixMilli(1700000000123)
	env.topUps.now = func() time.Time { return fixed }

	t.Run("below the minimum", func(t *testing.T) {
		_, err := env.topUps.CreateInvoice(ctx, &CreateInvoiceRequest{UserID: user.ID, Amount: decimal.RequireFromString("9.99")})
		assert.Equal(t, ErrCodeValidation, Code(err))
		env.gateway.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
	})

	t.Run("returns the processor payload", func(t *testing.T) {
		raw := json.RawMessage(`{"status":"success","result":{"uuid":"INV-1","link":"https://pay.example/INV-1"}}`)
		orderID := NewOrderID(user.ID, fixed)
		env.gateway.On("CreateInvoice", mock.Anything, cryptocloud.CreateInvoiceRequest{Amount: 10, OrderID: orderID}).
			Return(cryptocloud.CreateInvoiceResult{Raw: raw, Invoice: cryptocloud.Invoice{InvoiceID: "INV-1"}}, nil).Once()

		got, err := env.topUps.CreateInvoice(ctx, &CreateInvoiceRequest{UserID: user.ID, Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)
		assert.JSONEq(t, string(raw), string(got))

		invoice, err := env.store.GetInvoice(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, model.InvoiceStatusCreated, invoice.Status)
		assert.Equal(t, fixed.Add(time.Hour), invoice.ExpiresAt)
		assertBalance(t, env, user.ID, "0")
	})

	t.Run("processor failure", func(t *testing.T) {
		env.topUps.now = func() time.Time { return fixed.Add(time.Second) }
		env.gateway.On("CreateInvoice", mock.Anything, mock.Anything).
			Return(cryptocloud.CreateInvoiceResult{}, cryptocloud.ErrServerError).Once()

		_, err := env.topUps.CreateInvoice(ctx, &CreateInvoiceRequest{UserID: user.ID, Amount: decimal.NewFromInt(20)})
		assert.Equal(t, ErrCodeUpstream, Code(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.topUps.CreateInvoice(ctx, &CreateInvoiceRequest{UserID: 999, Amount: decimal.NewFromInt(20)})
		assert.Equal(t, ErrCodeNotFound, Code(err))
	})
}

func TestTopUpService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("credits once per order", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "")
		orderID := NewOrderID(user.ID, time.Now())
		req := &WebhookRequest{Status: "success", OrderID: orderID, Amount: decimal.NewFromInt(50)}

		for i := 0; i < 3; i++ {
			resp, err := env.topUps.HandleWebhook(ctx, req)
			require.NoError(t, err)
			assert.True(t, resp.Success)
		}
		assertBalance(t, env, user.ID, "50")

		txns, err := env.transactions.ListTransactions(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, TopUpDescription, txns[0].Description)
		assert.Equal(t, orderID, *txns[0].Reference)
	})

	t.Run("other statuses are acknowledged", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "")

		resp, err := env.topUps.HandleWebhook(ctx, &WebhookRequest{Status: "fail", OrderID: NewOrderID(user.ID, time.Now()), Amount: decimal.NewFromInt(50)})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assertBalance(t, env, user.ID, "0")
	})

	t.Run("malformed order id", func(t *testing.T) {
		env := newTestEnv(t, "")
		for _, orderID := range []string{"", "abc_1", "_1", "17"} {
			_, err := env.topUps.HandleWebhook(ctx, &WebhookRequest{Status: "success", OrderID: orderID, Amount: decimal.NewFromInt(5)})
			assert.Equal(t, ErrCodeValidation, Code(err), orderID)
		}
	})

	t.Run("missing or negative amount", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "")
		orderID := NewOrderID(user.ID, time.Now())
		for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
			_, err := env.topUps.HandleWebhook(ctx, &WebhookRequest{Status: "success", OrderID: orderID, Amount: amount})
			assert.Equal(t, ErrCodeValidation, Code(err), amount.String())
		}
		assertBalance(t, env, user.ID, "0")
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t, "")
		_, err := env.topUps.HandleWebhook(ctx, &WebhookRequest{Status: "success", OrderID: "404_1", Amount: decimal.NewFromInt(5)})
		assert.Equal(t, ErrCodeNotFound, Code(err))
	})

	t.Run("postback token is checked when a secret is set", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "")
		env.topUps.secret = "shop-secret"
		orderID := NewOrderID(user.ID, time.Now())

		_, err := env.topUps.HandleWebhook(ctx, &WebhookRequest{Status: "success", OrderID: orderID, Amount: decimal.NewFromInt(5), Token: "garbage"})
		assert.Equal(t, ErrCodeInvalidSignature, Code(err))

		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "INV-1"}).SignedString([]byte("shop-secret"))
		require.NoError(t, err)
		_, err = env.topUps.HandleWebhook(ctx, &WebhookRequest{Status: "success", OrderID: orderID, Amount: decimal.NewFromInt(5), Token: token})
		require.NoError(t, err)
		assertBalance(t, env, user.ID, "5")
	})
}

func TestUserIDFromOrderID(t *testing.T) {
	id, err := UserIDFromOrderID("42_1700000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = UserIDFromOrderID("x_1")
	assert.True(t, errors.Is(err, ErrInvalidOrderID))
}

func TestTopUpService_Reconcile(t *testing.T) {
	ctx := context.Background()

	newInvoice := func(t *testing.T, env *testEnv, userID int64, orderID string) *model.TopUpInvoice {
		t.Helper()
		inv, err := env.store.CreateInvoice(ctx, &model.TopUpInvoice{
			OrderID:   orderID,
			UserID:    userID,
			Amount:    decimal.NewFromInt(25),
			Status:    model.InvoiceStatusCreated,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		return inv
	}
	status := func(state string) cryptocloud.InvoiceStatusResult {
		return cryptocloud.InvoiceStatusResult{Status: cryptocloud.InvoiceStatus{Status: "success", StatusInvoice: state}}
	}

	t.Run("paid invoice is credited once", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "")
		inv := newInvoice(t, env, user.ID, "1_100")
		env.gateway.On("InvoiceStatus", mock.Anything, "1_100").Return(status("paid"), nil)

		outcome, err := env.topUps.Reconcile(ctx, inv)
		require.NoError(t, err)
		assert.Equal(t, ReconcileCredited, outcome)

		outcome, err = env.topUps.Reconcile(ctx, inv)
		require.NoError(t, err)
		assert.Equal(t, ReconcileReplayed, outcome)
		assertBalance(t, env, user.ID, "25")

		stored, err := env.store.GetInvoice(ctx, "1_100")
		require.NoError(t, err)
		assert.Equal(t, model.InvoiceStatusPaid, stored.Status)
	})

	t.Run("cancelled invoice", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "")
		inv := newInvoice(t, env, user.ID, "1_200")
		env.gateway.On("InvoiceStatus", mock.Anything, "1_200").Return(status("cancel"), nil)

		outcome, err := env.topUps.Reconcile(ctx, inv)
		require.NoError(t, err)
		assert.Equal(t, ReconcileCancelled, outcome)

		stored, err := env.store.GetInvoice(ctx, "1_200")
		require.NoError(t, err)
		assert.Equal(t, model.InvoiceStatusCancelled, stored.Status)
	})

	t.Run("unreachable processor past expiry", func(t *testing.T) {
		env := newTestEnv(t, "")
		user := env.fund(t, "")
		inv := newInvoice(t, env, user.ID, "1_300")
		env.gateway.On("InvoiceStatus", mock.Anything, "1_300").Return(cryptocloud.InvoiceStatusResult{}, cryptocloud.ErrTimeout)

		outcome, err := env.topUps.Reconcile(ctx, inv)
		assert.Error(t, err)
		assert.Equal(t, ReconcilePending, outcome)

		env.topUps.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		outcome, err = env.topUps.Reconcile(ctx, inv)
		require.NoError(t, err)
		assert.Equal(t, ReconcileExpired, outcome)
		assertBalance(t, env, user.ID, "0")
	})
}

func TestTransactionService_GetTransactionDetail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")
	user := env.fund(t, "50")
	env.geo.On("Lookup", mock.Anything, "8.8.8.8").Return(googleLookup(), nil)

	bought, err := env.purchases.BuyIPCheck(ctx, &IPCheckRequest{UserID: user.ID, IPAddress: "8.8.8.8"})
	require.NoError(t, err)

	t.Run("purchase carries its check", func(t *testing.T) {
		detail, err := env.transactions.GetTransactionDetail(ctx, bought.TransactionID)
		require.NoError(t, err)
		require.NotNil(t, detail.Service)
		assert.Equal(t, model.ServiceKindIPCheck, detail.Service.Kind)
		require.NotNil(t, detail.IPCheck)
		assert.Equal(t, bought.IPCheck.ID, detail.IPCheck.ID)
		assert.Nil(t, detail.PhoneCheck)
	})

	t.Run("history is newest first", func(t *testing.T) {
		txns, err := env.transactions.ListTransactions(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, model.TransactionTypePurchase, txns[0].Type)
		assert.Equal(t, model.TransactionTypeTopUp, txns[1].Type)

		detail, err := env.transactions.GetTransactionDetail(ctx, txns[1].ID)
		require.NoError(t, err)
		assert.Nil(t, detail.Service)
		assert.Nil(t, detail.IPCheck)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := env.transactions.GetTransactionDetail(ctx, 999)
		assert.Equal(t, ErrCodeNotFound, Code(err))
	})

	t.Run("unknown user has an empty history", func(t *testing.T) {
		txns, err := env.transactions.ListTransactions(ctx, 999)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}

func TestEventFactory_WritesOutbox(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "wallet.ledger")
	user := env.fund(t, "50")
	env.geo.On("Lookup", mock.Anything, "8.8.8.8").Return(googleLookup(), nil)

	_, err := env.purchases.BuyIPCheck(ctx, &IPCheckRequest{UserID: user.ID, IPAddress: "8.8.8.8"})
	require.NoError(t, err)

	pending, err := env.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	var event model.LedgerEvent
	require.NoError(t, json.Unmarshal([]byte(pending[1].Payload), &event))
	assert.Equal(t, model.EventPurchaseMade, event.Event)
	assert.Equal(t, "49.8", event.BalanceAfter)
	assert.Equal(t, "wallet.ledger", pending[1].Topic)
	assert.NotEmpty(t, event.EventNo)
}

func TestSeedService_Demo(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")
	seeder := NewSeedService(env.store, env.catalog, NewEventFactory(""), zap.NewNop())

	require.NoError(t, seeder.Seed(ctx, true))
	require.NoError(t, seeder.Seed(ctx, true))

	user, err := env.store.GetUserByTelegramID(ctx, telegram.DemoIdentity.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("49.55").Equal(user.Balance))

	txns, err := env.store.ListUserTransactions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 3)
}
