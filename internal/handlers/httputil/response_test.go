package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"customer not found", domain.NotFound(domain.ErrorCodeCustomerNotFound, "customer not found", "x"), http.StatusNotFound},
		{"payment not found", domain.ErrPaymentNotFound, http.StatusNotFound},
		{"validation", domain.NewDomainError(domain.ErrorCodeValidationDueDayInvalid, "bad"), http.StatusBadRequest},
		{"declined", domain.NewDomainError(domain.ErrorCodeGatewayDeclined, "expired"), http.StatusPaymentRequired},
		{"notifier", domain.NewDomainError(domain.ErrorCodeNotifierUnavailable, "down"), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, zap.NewNop(), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	RespondError(rec, zap.NewNop(), domain.NotFound(domain.ErrorCodeCustomerNotFound, "customer not found", "c-9"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "CUSTOMER_NOT_FOUND", body.Code)
	assert.Equal(t, "c-9", body.Details["id"])
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Rajesh"}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "Rajesh", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nmae":"typo"}`))
	assert.True(t, domain.IsValidationError(DecodeJSON(req, &v)))
}

func TestAsOf(t *testing.T) {
	now := time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC)

	got, err := AsOf(httptest.NewRequest(http.MethodGet, "/", nil), now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = AsOf(httptest.NewRequest(http.MethodGet, "/?as_of=2025-01-31", nil), now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), got)

	_, err = AsOf(httptest.NewRequest(http.MethodGet, "/?as_of=31-01-2025", nil), now)
	assert.True(t, domain.IsValidationError(err))
}

func TestRespondJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, zap.NewNop(), http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
