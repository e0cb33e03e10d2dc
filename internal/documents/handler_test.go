package documents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/stocklane/stocklane/testing"
)

func newTestRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	handler := NewHandler(slog.Default(), f.service)
	r.Route("/documents", handler.MountRoutes)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandlerCreateAndValidateReceipt(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f)

	rr := doJSON(t, router, http.MethodPost, "/documents/receipt", map[string]any{
		"warehouse_id": whMain,
		"lines":        []map[string]any{{"product_id": productX1, "quantity": "10"}},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var created Receipt
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "RCP-000001", created.Number)

	rr = doJSON(t, router, http.MethodPost, fmt.Sprintf("/documents/receipt/%d/validate", created.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var validated Receipt
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &validated))
	require.Equal(t, StatusDone, validated.Status)
	require.NotNil(t, validated.ValidatedAt)

	// Validating again conflicts.
	rr = doJSON(t, router, http.MethodPost, fmt.Sprintf("/documents/receipt/%d/validate", created.ID), nil)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandlerInsufficientStock(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f)

	rr := doJSON(t, router, http.MethodPost, "/documents/delivery", map[string]any{
		"warehouse_id": whMain,
		"lines":        []map[string]any{{"product_id": productX1, "quantity": "5"}},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var created Delivery
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = doJSON(t, router, http.MethodPost, fmt.Sprintf("/documents/delivery/%d/validate", created.ID), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.Equal(t, "Insufficient Stock", problem["title"])
}

func TestHandlerUnknownKind(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f)

	rr := doJSON(t, router, http.MethodGet, "/documents/invoice", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerRejectsBadPayload(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f)

	rr := doJSON(t, router, http.MethodPost, "/documents/transfer", map[string]any{
		"product_id": productX1,
		"quantity":   "3",
		// missing warehouses
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
