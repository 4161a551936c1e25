package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{name: "nil", err: nil, want: ""},
		{name: "canceled", err: context.Canceled, want: ErrorClassCanceled},
		{name: "deadline wrapped", err: fmt.Errorf("mget: %w", context.DeadlineExceeded), want: ErrorClassCanceled},
		{name: "too many keys", err: &Error{Op: "lookup", Err: ErrTooManyKeys}, want: ErrorClassInvalid},
		{name: "invalid document", err: fmt.Errorf("%w: bad json", ErrInvalidDocument), want: ErrorClassInvalid},
		{name: "other", err: errors.New("connection reset"), want: ErrorClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassTransient, true},
		{ErrorClassInvalid, false},
		{ErrorClassCanceled, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := shouldRetry(tt.class); got != tt.want {
			t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "with collection",
			err:      &Error{Op: "mget", Collection: "products", Err: errors.New("timeout")},
			expected: "store mget products: timeout",
		},
		{
			name:     "without collection",
			err:      &Error{Op: "ping", Err: errors.New("refused")},
			expected: "store ping: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &Error{Op: "mget", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	var storeErr *Error
	if !errors.As(fmt.Errorf("outer: %w", err), &storeErr) {
		t.Error("errors.As should find *Error")
	}
}

func TestCheckKeys(t *testing.T) {
	keys := []string{"a", "b", "c"}

	if err := checkKeys("lookup", "c", keys, 3); err != nil {
		t.Errorf("checkKeys at limit = %v, want nil", err)
	}
	if err := checkKeys("lookup", "c", keys, 0); err != nil {
		t.Errorf("checkKeys without limit = %v, want nil", err)
	}
	if err := checkKeys("lookup", "c", keys, 2); !errors.Is(err, ErrTooManyKeys) {
		t.Errorf("checkKeys over limit = %v, want ErrTooManyKeys", err)
	}
}
