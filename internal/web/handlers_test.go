package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adamsbarry18/innov-stocker/internal/config"
	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/google/uuid"
)

// stubCustomerGW is a CustomerGateway with fixed currencies and no existing
// emails.
type stubCustomerGW struct {
	createErr error
	created   int
}

func (s *stubCustomerGW) ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (s *stubCustomerGW) ExistingCurrencyIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool)
	for _, id := range ids {
		if id == 1 {
			found[id] = true
		}
	}
	return found, nil
}

func (s *stubCustomerGW) ValidateRow(ctx context.Context, row imports.CustomerRow) []string {
	return nil
}

func (s *stubCustomerGW) CreateAll(ctx context.Context, rows []imports.CustomerRow) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created += len(rows)
	return nil
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("no route to host") }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
		},
		Rate: config.RateLimitConfig{Enabled: false},
	}
}

// newTestServer registers the customer definition against a stub gateway
// and returns the server plus the service for direct batch processing.
func newTestServer(t *testing.T, gw *stubCustomerGW) (*Server, *imports.Service) {
	t.Helper()
	imports.Clear()
	t.Cleanup(imports.Clear)
	imports.Register(imports.Customers(gw))

	service := imports.NewService(imports.NewMemoryStore(), imports.Options{})
	return NewServer(service, testConfig(), nil), service
}

func submitBody(rows ...string) *bytes.Buffer {
	return bytes.NewBufferString(
		`{"originalFileName":"customers.csv","data":[` + strings.Join(rows, ",") + `]}`)
}

func TestHandleSubmit_Accepted(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/customers",
		submitBody(`{"email":"a@example.com","lastName":"Ada","currencyId":1}`))
	req.Header.Set("X-User-ID", "user-42")
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body)
	}

	var resp struct {
		ID         string `json:"id"`
		EntityType string `json:"entityType"`
		Status     string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" {
		t.Error("response id is empty")
	}
	if resp.EntityType != "CUSTOMER" {
		t.Errorf("entityType = %q, want CUSTOMER", resp.EntityType)
	}
	if resp.Status != "PENDING" {
		t.Errorf("status = %q, want PENDING", resp.Status)
	}
}

func TestHandleSubmit_EmptyData(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/customers", submitBody())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorCode(t, rec, "VAL001")
}

func TestHandleSubmit_UnknownSlug(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/warehouses",
		submitBody(`{"name":"Main"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorCode(t, rec, "IMP001")
}

func TestHandleSubmit_BodyNotJSON(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/customers",
		bytes.NewBufferString("originalFileName=customers.csv"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSubmit_MalformedRow(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/customers",
		submitBody(`{"email":"a@example.com","currencyId":1}`, `["not","an","object"]`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorCode(t, rec, "VAL002")
}

func TestHandleStatus_FullLifecycle(t *testing.T) {
	gw := &stubCustomerGW{}
	srv, service := newTestServer(t, gw)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/customers",
		submitBody(
			`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
			`{"email":"b@example.com","lastName":"Bea","currencyId":1}`,
		))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body)
	}

	var submitted struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&submitted); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}

	// Drive the batch to completion the way a worker would.
	id, err := uuid.Parse(submitted.ID)
	if err != nil {
		t.Fatalf("submitted id %q is not a uuid: %v", submitted.ID, err)
	}
	service.ProcessBatch(context.Background(), id)

	statusReq := httptest.NewRequest(http.MethodGet, "/api/v1/import/status/"+submitted.ID, nil)
	statusRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(statusRec, statusReq)

	if statusRec.Code != http.StatusOK {
		t.Fatalf("status query = %d: %s", statusRec.Code, statusRec.Body)
	}

	var status struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Summary struct {
			TotalRows  int `json:"totalRows"`
			Imported   int `json:"successfullyImported"`
			FailedRows int `json:"failedRowsCount"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(statusRec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if status.Status != "COMPLETED" {
		t.Errorf("status = %q, want COMPLETED", status.Status)
	}
	if status.Summary.TotalRows != 2 || status.Summary.Imported != 2 {
		t.Errorf("summary = %+v, want 2 imported of 2", status.Summary)
	}
	if gw.created != 2 {
		t.Errorf("created = %d, want 2", gw.created)
	}
}

func TestHandleStatus_MalformedID(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/status/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleStatus_UnknownID(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/import/status/3e5a1a3e-0d3c-4a3d-9f57-6a211f2a2a11", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	assertErrorCode(t, rec, "IMP002")
}

func TestHandleListTypes(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/types", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var types []struct {
		EntityType string `json:"entityType"`
		Slug       string `json:"slug"`
		Protocol   string `json:"protocol"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&types); err != nil {
		t.Fatalf("decode types: %v", err)
	}
	if len(types) != 1 {
		t.Fatalf("types = %d, want 1", len(types))
	}
	if types[0].Slug != "customers" || types[0].Protocol != "bulk" {
		t.Errorf("type = %+v, want customers/bulk", types[0])
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandleHealth_DatabaseDown(t *testing.T) {
	imports.Clear()
	t.Cleanup(imports.Clear)
	imports.Register(imports.Customers(&stubCustomerGW{}))

	service := imports.NewService(imports.NewMemoryStore(), imports.Options{})
	srv := NewServer(service, testConfig(), failingPinger{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestSubmitRateLimit(t *testing.T) {
	imports.Clear()
	t.Cleanup(imports.Clear)
	imports.Register(imports.Customers(&stubCustomerGW{}))

	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, SubmitLimit: 2}

	service := imports.NewService(imports.NewMemoryStore(), imports.Options{})
	srv := NewServer(service, cfg, nil)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/customers",
			submitBody(fmt.Sprintf(`{"email":"u%d@example.com","lastName":"U","currencyId":1}`, i)))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		last = rec.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("third submission status = %d, want %d", last, http.StatusTooManyRequests)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t, &stubCustomerGW{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != want {
		t.Errorf("error code = %q, want %q (message %q)", resp.Code, want, resp.Message)
	}
}
