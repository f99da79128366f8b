package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestDomainErrors_Wrapping tests that wrapped domain errors still match their sentinel
func TestDomainErrors_Wrapping(t *testing.T) {
	tests := []struct {
		name        string
		baseErr     error
		wrapMessage string
	}{
		{
			name:        "wrap_customer_not_found",
			baseErr:     ErrCustomerNotFound,
			wrapMessage: "failed to record payment",
		},
		{
			name:        "wrap_payment_not_found",
			baseErr:     ErrPaymentNotFound,
			wrapMessage: "bulk status update",
		},
		{
			name:        "wrap_notifier_unavailable",
			baseErr:     ErrNotifierUnavailable,
			wrapMessage: "send reminder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("%s: %w", tt.wrapMessage, tt.baseErr)

			if !strings.Contains(wrapped.Error(), tt.wrapMessage) {
				t.Errorf("wrapped error %q does not contain wrap message %q", wrapped.Error(), tt.wrapMessage)
			}

			if !errors.Is(wrapped, tt.baseErr) {
				t.Errorf("errors.Is failed: wrapped error does not match base error %v", tt.baseErr)
			}
		})
	}
}

// TestDomainErrors_IsComparison tests that errors.Is matches by code
func TestDomainErrors_IsComparison(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		shouldNot error
	}{
		{
			name:      "not_found_with_detail_matches_sentinel",
			err:       NotFound(ErrorCodeCustomerNotFound, "customer not found", "c-1"),
			target:    ErrCustomerNotFound,
			shouldNot: ErrPaymentNotFound,
		},
		{
			name:      "wrapped_gateway_declined_matches",
			err:       fmt.Errorf("verify: %w", WrapError(ErrorCodeGatewayDeclined, "declined", errors.New("insufficient funds"))),
			target:    ErrGatewayDeclined,
			shouldNot: ErrGatewayError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.target)
			}
			if errors.Is(tt.err, tt.shouldNot) {
				t.Errorf("errors.Is(%v, %v) = true, want false", tt.err, tt.shouldNot)
			}
		})
	}
}

func TestDomainErrors_Classification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		gateway    bool
		notifier   bool
	}{
		{"customer not found", ErrCustomerNotFound, true, false, false, false},
		{"payment not found", fmt.Errorf("x: %w", ErrPaymentNotFound), true, false, false, false},
		{"due day", ValidateDueDay(31), false, true, false, false},
		{"missing field", ErrValidationMissingField, false, true, false, false},
		{"gateway declined", ErrGatewayDeclined, false, false, true, false},
		{"notifier", ErrNotifierUnavailable, false, false, false, true},
		{"plain error", errors.New("boom"), false, false, false, false},
		{"nil", nil, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.notFound {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.notFound)
			}
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.validation)
			}
			if got := IsGatewayError(tt.err); got != tt.gateway {
				t.Errorf("IsGatewayError() = %v, want %v", got, tt.gateway)
			}
			if got := IsNotifierError(tt.err); got != tt.notifier {
				t.Errorf("IsNotifierError() = %v, want %v", got, tt.notifier)
			}
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorCodeValidationFailed, "bad row").WithDetail("row", 3)

	if err.Details["row"] != 3 {
		t.Errorf("Details[row] = %v, want 3", err.Details["row"])
	}
	if got := err.Error(); got != "VALIDATION_FAILED: bad row" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := WrapError(ErrorCodeDatabaseError, "insert customer", errors.New("conn reset"))
	if got := wrapped.Error(); got != "INTERNAL_DATABASE_ERROR: insert customer: conn reset" {
		t.Errorf("Error() = %q", got)
	}
	if GetErrorCode(fmt.Errorf("outer: %w", wrapped)) != ErrorCodeDatabaseError {
		t.Errorf("GetErrorCode() did not unwrap")
	}
}
