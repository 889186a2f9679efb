package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusNone, "none"},
		{StatusInvalidParameter, "invalid-parameter"},
		{StatusInvalidState, "invalid-state"},
		{StatusBusy, "busy"},
		{StatusNoStorage, "no-storage"},
		{StatusNoMemory, "no-memory"},
		{StatusInitFail, "init-fail"},
		{StatusUnknown, "unknown"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusNone},
		{"param", ErrInvalidParameter, StatusInvalidParameter},
		{"wrapped state", fmt.Errorf("ep 3: %w", ErrInvalidState), StatusInvalidState},
		{"timeout", fmt.Errorf("%w: %w", ErrBusy, ErrTimeout), StatusBusy},
		{"storage", ErrNoStorage, StatusNoStorage},
		{"memory", ErrNoMemory, StatusNoMemory},
		{"init", fmt.Errorf("core reset: %w", ErrInitFail), StatusInitFail},
		{"foreign", errors.New("boom"), StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %v, want %v", got, tt.want)
			}
			if tt.want != StatusUnknown && !errors.Is(tt.err, tt.want.Error()) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want.Error())
			}
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	errs := []error{
		ErrInvalidParameter,
		ErrInvalidState,
		ErrBusy,
		ErrNoStorage,
		ErrNoMemory,
		ErrInitFail,
		ErrUnknown,
		ErrTimeout,
		ErrSuspended,
	}

	for i, err1 := range errs {
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("error %d and %d are equal", i, j)
			}
		}
	}
}
