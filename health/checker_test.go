package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusUnknown, "unknown"},
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	probeErr := errors.New("connection refused")

	tests := []struct {
		name    string
		result  Result
		status  Status
		message string
		err     error
	}{
		{"healthy", Healthy("all good"), StatusHealthy, "all good", nil},
		{"degraded", Degraded("slow"), StatusDegraded, "slow", nil},
		{"unhealthy", Unhealthy("down", probeErr), StatusUnhealthy, "down", probeErr},
		{"unknown", Unknown("not yet checked"), StatusUnknown, "not yet checked", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.result.Message, tt.message)
			}
			if tt.result.Error != tt.err {
				t.Errorf("Error = %v, want %v", tt.result.Error, tt.err)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should not be zero")
			}
		})
	}
}

func TestResult_WithDetails(t *testing.T) {
	result := Healthy("ok").WithDetails(map[string]any{"region": "us-east-1"})

	if result.Details["region"] != "us-east-1" {
		t.Errorf("Details[region] = %v, want us-east-1", result.Details["region"])
	}
}

func TestResult_WithDuration(t *testing.T) {
	result := Healthy("ok").WithDuration(42 * time.Millisecond)

	if result.Duration != 42*time.Millisecond {
		t.Errorf("Duration = %v, want 42ms", result.Duration)
	}
}

func TestCheckerFunc(t *testing.T) {
	checker := NewCheckerFunc("custom", func(ctx context.Context) Result {
		return Healthy("fine")
	})

	if checker.Name() != "custom" {
		t.Errorf("Name() = %v, want custom", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
}

func TestNewProbeChecker(t *testing.T) {
	probeErr := errors.New("dial tcp: refused")

	t.Run("success", func(t *testing.T) {
		checker := NewProbeChecker("endpoint", func(ctx context.Context) error {
			return nil
		})

		result := checker.Check(context.Background())
		if result.Status != StatusHealthy {
			t.Errorf("Status = %v, want StatusHealthy", result.Status)
		}
	})

	t.Run("failure", func(t *testing.T) {
		checker := NewProbeChecker("endpoint", func(ctx context.Context) error {
			return probeErr
		})

		result := checker.Check(context.Background())
		if result.Status != StatusUnhealthy {
			t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
		}
		if result.Error != probeErr {
			t.Errorf("Error = %v, want %v", result.Error, probeErr)
		}
	})

	t.Run("nil probe", func(t *testing.T) {
		checker := NewProbeChecker("endpoint", nil)

		result := checker.Check(context.Background())
		if result.Status != StatusHealthy {
			t.Errorf("Status = %v, want StatusHealthy", result.Status)
		}
	})
}
