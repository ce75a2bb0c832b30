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
	ProviderName = "brix-market-api"
	ConsumerName = "brix-market-web"

	StateListingOnSale = "listing 1 is on sale by farmer-kim"
	StateOrderExists   = "buyer-lee has pending order 1"
	StateOrderMissing  = "no order with id 999"
)

const (
	ListingID       int64 = 1
	ExistingOrderID int64 = 1
	MissingOrderID  int64 = 999

	BuyerUsername   = "buyer-lee"
	DeliveryAddress = "7 Hallasan-ro, Jeju"
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

// PactFile returns the canonical pact file path for the web consumer.
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

// ExamplePlaceOrderPayload provides stable test data for order placement.
func ExamplePlaceOrderPayload() map[string]any {
	return map[string]any{
		"listingId":       ListingID,
		"quantity":        2,
		"deliveryAddress": DeliveryAddress,
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
