package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dwhouse/retail-bi/internal/reporting"
)

// fakeStore satisfies Store with canned data.
type fakeStore struct {
	dashboard  *reporting.Dashboard
	page       *reporting.ProductPage
	products   map[int64]bool
	saved      []reporting.Transaction
	failDash   bool
	failSave   bool
	lastSearch string
	lastPage   int
}

func (f *fakeStore) Dashboard(ctx context.Context) (*reporting.Dashboard, error) {
	if f.failDash {
		return nil, fmt.Errorf("induced failure")
	}
	return f.dashboard, nil
}

func (f *fakeStore) Products(ctx context.Context, search string, page int) (*reporting.ProductPage, error) {
	f.lastSearch, f.lastPage = search, page
	return f.page, nil
}

func (f *fakeStore) ProductExists(ctx context.Context, productID int64) (bool, error) {
	return f.products[productID], nil
}

func (f *fakeStore) SaveTransaction(ctx context.Context, t reporting.Transaction) error {
	if f.failSave {
		return fmt.Errorf("induced failure")
	}
	f.saved = append(f.saved, t)
	return nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		dashboard: &reporting.Dashboard{
			TotalSales: 760,
			SalesByCategory: []reporting.CategorySales{
				{Category: "Furniture", Total: 425},
				{Category: "Technology", Total: 335},
			},
			TopProducts: []reporting.ProductSales{
				{ProductName: "Desk Phone", TotalSales: 335},
			},
			MonthlyTrend: []reporting.MonthlySales{
				{Year: 2023, MonthName: "June", Total: 25},
				{Year: 2023, MonthName: "July", Total: 10},
			},
		},
		page: &reporting.ProductPage{
			Products:    []reporting.Product{{ProductID: 1, ProductName: "Desk Phone"}},
			Total:       1,
			CurrentPage: 1,
			PerPage:     20,
			LastPage:    1,
		},
		products: map[int64]bool{1: true},
	}
}

func doRequest(t *testing.T, method, path, body string) (*fakeStore, *httptest.ResponseRecorder) {
	t.Helper()

	store := newFakeStore()
	router := NewRouter(store)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return store, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("Response is not JSON: %v", err)
	}
	return m
}

func TestHealth(t *testing.T) {
	_, rec := doRequest(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if m := decodeBody(t, rec); m["status"] != "ok" {
		t.Errorf("Body = %v, want status ok", m)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	_, rec := doRequest(t, http.MethodGet, "/api/retail/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	m := decodeBody(t, rec)
	if m["status"] != "success" {
		t.Errorf("status = %v, want success", m["status"])
	}

	data, ok := m["data"].(map[string]any)
	if !ok {
		t.Fatalf("data missing: %v", m)
	}
	if data["total_sales"] != float64(760) {
		t.Errorf("total_sales = %v, want 760", data["total_sales"])
	}
	for _, key := range []string{"sales_by_category", "top_products", "monthly_sales_trend"} {
		if _, ok := data[key]; !ok {
			t.Errorf("data missing %q", key)
		}
	}
}

func TestDashboardEndpointFailure(t *testing.T) {
	store := newFakeStore()
	store.failDash = true
	router := NewRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/retail/dashboard", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", rec.Code)
	}
}

func TestProductsEndpoint(t *testing.T) {
	store, rec := doRequest(t, http.MethodGet, "/api/retail/products?search=phone&page=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if store.lastSearch != "phone" || store.lastPage != 3 {
		t.Errorf("Store called with search=%q page=%d, want phone/3", store.lastSearch, store.lastPage)
	}

	m := decodeBody(t, rec)
	if m["total"] != float64(1) || m["current_page"] != float64(1) {
		t.Errorf("Unexpected page: %v", m)
	}
}

func TestProductsEndpointDefaultsPage(t *testing.T) {
	store, rec := doRequest(t, http.MethodGet, "/api/retail/products", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if store.lastPage != 1 {
		t.Errorf("Default page = %d, want 1", store.lastPage)
	}
}

func TestProductsEndpointRejectsBadPage(t *testing.T) {
	for _, page := range []string{"0", "-1", "abc"} {
		_, rec := doRequest(t, http.MethodGet, "/api/retail/products?page="+page, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("page=%q: status = %d, want 400", page, rec.Code)
		}
	}
}

func TestTransactionEndpoint(t *testing.T) {
	body := `{"product_id": 1, "quantity": 3, "sales": 49.99}`
	store, rec := doRequest(t, http.MethodPost, "/api/retail/transaction", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if len(store.saved) != 1 {
		t.Fatalf("Saved %d transactions, want 1", len(store.saved))
	}
	got := store.saved[0]
	if got.ProductID != 1 || got.Quantity != 3 || got.Sales != 49.99 {
		t.Errorf("Saved transaction = %+v", got)
	}
}

func TestTransactionEndpointValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "{", http.StatusBadRequest},
		{"missing product", `{"quantity": 1, "sales": 10}`, http.StatusUnprocessableEntity},
		{"missing quantity", `{"product_id": 1, "sales": 10}`, http.StatusUnprocessableEntity},
		{"missing sales", `{"product_id": 1, "quantity": 1}`, http.StatusUnprocessableEntity},
		{"zero quantity", `{"product_id": 1, "quantity": 0, "sales": 10}`, http.StatusUnprocessableEntity},
		{"unknown product", `{"product_id": 42, "quantity": 1, "sales": 10}`, http.StatusUnprocessableEntity},
		{"zero sales is valid", `{"product_id": 1, "quantity": 1, "sales": 0}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, rec := doRequest(t, http.MethodPost, "/api/retail/transaction", tt.body)
			if rec.Code != tt.want {
				t.Errorf("Status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want != http.StatusOK && len(store.saved) != 0 {
				t.Errorf("Rejected request still saved %d transactions", len(store.saved))
			}
		})
	}
}

func TestTransactionEndpointStorageFailure(t *testing.T) {
	store := newFakeStore()
	store.failSave = true
	router := NewRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/api/retail/transaction",
		strings.NewReader(`{"product_id": 1, "quantity": 1, "sales": 10}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", rec.Code)
	}
}
