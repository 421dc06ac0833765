//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "storefront-api"
	ConsumerName = "pos-terminal"

	StateVariantStocked = "variant v-pact-m has 10 units"
	StateVariantScarce  = "variant v-pact-m has 1 unit"
	StateOrderExists    = "order pact-order-1 exists"
	StateOrderMissing   = "no order missing-order"
)

const (
	VariantID       = "v-pact-m"
	ExistingOrderID = "pact-order-1"
	MissingOrderID  = "missing-order"
	IdempotencyKey  = "pos-7-000042"

	// ConsumerToken is a placeholder; the provider verifier swaps in a signed token.
	ConsumerToken = "Bearer pact-placeholder"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the POS terminal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleSalePayload is a two-unit cash sale of the pact variant.
func ExampleSalePayload(quantity int) map[string]any {
	return map[string]any{
		"channel":       "IN_PERSON",
		"paymentMethod": "CASH",
		"lines": []map[string]any{
			{"variantId": VariantID, "quantity": quantity, "unitPrice": "19.99", "discountRate": "0"},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
