package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payadvice/internal/advice"
	"github.com/MrJamesThe3rd/payadvice/internal/export"
	"github.com/MrJamesThe3rd/payadvice/internal/http/respond"
	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func TestError(t *testing.T) {
	type testCase struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}

	tests := []testCase{
		{
			name:       "Validation",
			err:        fmt.Errorf("%w: UTR number is required", payment.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "validation failed: UTR number is required",
		},
		{
			name:       "RecipientValidation",
			err:        fmt.Errorf("%w: phone is required", recipient.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "validation failed: phone is required",
		},
		{
			name:       "NotFound",
			err:        payment.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "invoice not found",
		},
		{
			name:       "NothingToExport",
			err:        export.ErrNothingToExport,
			wantStatus: http.StatusNotFound,
			wantMsg:    "batch has no approved invoices",
		},
		{
			name:       "Conflict",
			err:        fmt.Errorf("update line: %w", payment.ErrConflict),
			wantStatus: http.StatusConflict,
			wantMsg:    "update line: invoice was modified concurrently",
		},
		{
			name:       "Transition",
			err:        fmt.Errorf("%w: Approved to Pending", payment.ErrInvalidTransition),
			wantStatus: http.StatusConflict,
			wantMsg:    "invalid status transition: Approved to Pending",
		},
		{
			name:       "RecipientDuplicate",
			err:        fmt.Errorf("create recipient: %w", &recipient.DuplicateError{Field: recipient.FieldAccountNumber}),
			wantStatus: http.StatusConflict,
			wantMsg:    "Account number is already registered",
		},
		{
			name:       "Render",
			err:        fmt.Errorf("render: %w", &advice.RenderError{Tenant: tenant.ASA, Err: advice.ErrTemplateNotFound}),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "could not render payment advice",
		},
		{
			name:       "Internal",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			respond.Error(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var env respond.Envelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	respond.JSON(rec, http.StatusCreated, "created", map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"created","data":{"n":1}}`, rec.Body.String())
}

func TestJSON_KeepsEmptyMessage(t *testing.T) {
	rec := httptest.NewRecorder()

	respond.JSON(rec, http.StatusOK, "", []string{"a"})

	assert.JSONEq(t, `{"success":true,"message":"","data":["a"]}`, rec.Body.String())
}
