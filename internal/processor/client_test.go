package processor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"rinha-backend-golang/internal/models"
)

func testMessage() models.PaymentMessage {
	return models.PaymentMessage{
		Amount:        decimal.NewFromFloat(10.5),
		CorrelationID: uuid.New(),
	}
}

func TestProcess_StatusClassification(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"success", http.StatusOK, nil},
		{"created treated as success", http.StatusCreated, nil},
		{"invalid payment", http.StatusUnprocessableEntity, ErrInvalidPayment},
		{"request timeout", http.StatusRequestTimeout, ErrUnavailable},
		{"too many requests", http.StatusTooManyRequests, ErrUnavailable},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
		{"unexpected status treated as success", http.StatusTeapot, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			}))
			defer srv.Close()

			c := NewClient(srv.URL)
			err := c.Process(context.Background(), testMessage(), time.Now())
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestProcess_TransportFailureIsUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	err := c.Process(context.Background(), testMessage(), time.Now())
	assert.ErrorIs(t, err, ErrUnavailable)
}
