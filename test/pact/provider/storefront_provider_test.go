//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	storefrontserver "github.com/Apurer/storefront-api/go"
	"github.com/Apurer/storefront-api/internal/domains/access/adapters/http/auth"
	accessmemory "github.com/Apurer/storefront-api/internal/domains/access/adapters/memory"
	accessapp "github.com/Apurer/storefront-api/internal/domains/access/application"
	accessdomain "github.com/Apurer/storefront-api/internal/domains/access/domain"
	invmemory "github.com/Apurer/storefront-api/internal/domains/inventory/adapters/memory"
	invapp "github.com/Apurer/storefront-api/internal/domains/inventory/application"
	invdomain "github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	salesmemory "github.com/Apurer/storefront-api/internal/domains/sales/adapters/memory"
	salesobs "github.com/Apurer/storefront-api/internal/domains/sales/adapters/observability"
	salesapp "github.com/Apurer/storefront-api/internal/domains/sales/application"
	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	pacttest "github.com/Apurer/storefront-api/test/pact"
)

var contractSecret = []byte("pact-contract-secret")

func TestStorefrontProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	token, err := app.auth.IssueToken(accessdomain.Principal{UserID: "pact-cashier", RoleID: "cashier"})
	require.NoError(t, err)

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateVariantStocked: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				app.reset(t, 10)
			}
			return nil, nil
		},
		pacttest.StateVariantScarce: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				app.reset(t, 1)
			}
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				app.reset(t, 10)
				app.seedOrder(t, pacttest.ExistingOrderID)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				app.reset(t, 10)
			}
			return nil, nil
		},
	}

	err = verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL:       app.server.URL,
		Provider:              pacttest.ProviderName,
		PactFiles:             []string{pactFile},
		StateHandlers:         stateHandlers,
		CustomProviderHeaders: []string{"Authorization: Bearer " + token},
		BeforeEach: func() error {
			app.reset(t, 10)
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp serves whichever in-memory stack the last provider state built.
type contractProviderApp struct {
	auth    *auth.Authenticator
	current atomic.Pointer[contractStack]
	server  *httptest.Server
}

type contractStack struct {
	router *gin.Engine
	store  *salesmemory.Store
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	authenticator, err := auth.NewAuthenticator(contractSecret, accessapp.NewService(accessmemory.NewRepository()))
	require.NoError(t, err)

	app := &contractProviderApp{auth: authenticator}
	app.reset(t, 10)
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.current.Load().router.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset(t testing.TB, stock int) {
	t.Helper()

	inventory := invmemory.NewRepository()
	variant, err := invdomain.NewVariant(pacttest.VariantID, "pact-shirt", invdomain.SizeM, "SKU-PACT-M", stock)
	require.NoError(t, err)
	_, err = inventory.Create(context.Background(), variant)
	require.NoError(t, err)

	store := salesmemory.NewStore(inventory)
	sales := salesobs.New(salesapp.NewService(store))
	access := accessapp.NewService(accessmemory.NewRepository())

	router := gin.New()
	router.Use(gin.Recovery())
	router = storefrontserver.NewRouterWithGinEngine(router, storefrontserver.ApiHandleFunctions{
		OrdersAPI:    storefrontserver.NewOrdersAPI(sales, nil),
		InventoryAPI: storefrontserver.NewInventoryAPI(invapp.NewService(inventory), 5),
		RolesAPI:     storefrontserver.NewRolesAPI(access),
		Guard:        a.auth,
	})
	a.current.Store(&contractStack{router: router, store: store})
}

// seedOrder commits a two-unit sale under a fixed order id.
func (a *contractProviderApp) seedOrder(t testing.TB, id string) {
	t.Helper()
	stack := a.current.Load()
	service := salesapp.NewService(stack.store, salesapp.WithIDGenerator(func() string { return id }))
	_, err := service.PlaceOrder(context.Background(), salestypes.PlaceOrderCommand{
		CashierID:     "pact-cashier",
		Channel:       "IN_PERSON",
		PaymentMethod: "CASH",
		Lines: []salestypes.LineInput{{
			VariantID:    pacttest.VariantID,
			Quantity:     2,
			UnitPrice:    decimal.RequireFromString("19.99"),
			DiscountRate: decimal.Zero,
		}},
	})
	require.NoError(t, err)
}
