//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/storefront-api/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type orderPayload struct {
	ID       string `json:"id"`
	Total    string `json:"total"`
	Replayed bool   `json:"replayed"`
}

type shortfall struct {
	VariantID string `json:"variantId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type problemDetail struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Extensions struct {
		Shortfalls []shortfall `json:"shortfalls"`
	} `json:"extensions"`
}

type apiError struct {
	status  int
	problem problemDetail
}

func (e apiError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.problem.Title, e.problem.Detail, e.status)
}

func TestPOSTerminalContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	bearer := matchers.Regex(pacttest.ConsumerToken, "^Bearer .+$")
	orderMatcher := matchers.Map{
		"id":            matchers.Like("0b9c2f7e-4c0a-4d55-9a51-3d2b7c1f0e11"),
		"cashierId":     matchers.Like("pact-cashier"),
		"channel":       matchers.S("IN_PERSON"),
		"paymentMethod": matchers.S("CASH"),
		"total":         matchers.Term("39.98", `^\d+\.\d{2}$`),
		"lines": matchers.EachLike(matchers.Map{
			"variantId": matchers.S(pacttest.VariantID),
			"quantity":  matchers.Like(2),
			"lineTotal": matchers.Term("39.98", `^\d+\.\d{2}$`),
		}, 1),
	}

	pact.AddInteraction().
		Given(pacttest.StateVariantStocked).
		UponReceiving("a cash sale of two units").
		WithRequest("POST", "/v1/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Authorization", bearer)
			b.Header("Idempotency-Key", matchers.S(pacttest.IdempotencyKey))
			b.JSONBody(pacttest.ExampleSalePayload(2))
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateVariantScarce).
		UponReceiving("a sale exceeding available stock").
		WithRequest("POST", "/v1/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Authorization", bearer)
			b.JSONBody(pacttest.ExampleSalePayload(3))
		}).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/insufficient-stock"),
				"title":  matchers.S("Insufficient Stock"),
				"status": matchers.Like(http.StatusConflict),
				"extensions": matchers.Map{
					"shortfalls": matchers.EachLike(matchers.Map{
						"variantId": matchers.S(pacttest.VariantID),
						"requested": matchers.Like(3),
						"available": matchers.Like(1),
					}, 1),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to fetch an existing order").
		WithRequest("GET", "/v1/orders/"+pacttest.ExistingOrderID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"id":    matchers.S(pacttest.ExistingOrderID),
				"total": matchers.Term("39.98", `^\d+\.\d{2}$`),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a request for a missing order").
		WithRequest("GET", "/v1/orders/"+pacttest.MissingOrderID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newPOSClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		created, err := client.PlaceOrder(ctx, pacttest.ExampleSalePayload(2), pacttest.IdempotencyKey)
		if err != nil {
			return fmt.Errorf("place order: %w", err)
		}
		if created.ID == "" || created.Total != "39.98" {
			return fmt.Errorf("unexpected order %+v", created)
		}

		_, err = client.PlaceOrder(ctx, pacttest.ExampleSalePayload(3), "")
		apiErr, ok := err.(apiError)
		if !ok || apiErr.status != http.StatusConflict || len(apiErr.problem.Extensions.Shortfalls) != 1 {
			return fmt.Errorf("expected insufficient stock problem, got %v", err)
		}

		fetched, err := client.GetOrder(ctx, pacttest.ExistingOrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if fetched.ID != pacttest.ExistingOrderID {
			return fmt.Errorf("expected order %s, got %+v", pacttest.ExistingOrderID, fetched)
		}

		if _, err := client.GetOrder(ctx, pacttest.MissingOrderID); err == nil {
			return fmt.Errorf("expected 404 for order %s", pacttest.MissingOrderID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.status)
		}
		return nil
	})
	require.NoError(t, err)
}

type posClient struct {
	baseURL    string
	httpClient *http.Client
}

func newPOSClient(config pactconsumer.MockServerConfig) *posClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &posClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *posClient) PlaceOrder(ctx context.Context, sale map[string]any, idempotencyKey string) (*orderPayload, error) {
	body, err := json.Marshal(sale)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", pacttest.ConsumerToken)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	return c.doOrder(req)
}

func (c *posClient) GetOrder(ctx context.Context, id string) (*orderPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/orders/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", pacttest.ConsumerToken)
	return c.doOrder(req)
}

func (c *posClient) doOrder(req *http.Request) (*orderPayload, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var problem problemDetail
		_ = json.NewDecoder(res.Body).Decode(&problem)
		return nil, apiError{status: res.StatusCode, problem: problem}
	}
	var payload orderPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
