package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockGenerationChecker struct {
	err error
}

func (m *mockGenerationChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockGenerationChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[CheckDatabase] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks[CheckDatabase])
	}
	if r.Checks[CheckGeneration] != CheckOK {
		t.Errorf("expected generation %q, got %q", CheckOK, r.Checks[CheckGeneration])
	}
}

func TestCheck_DBErrorDegrades(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, &mockGenerationChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[CheckDatabase])
	}
}

func TestCheck_GenerationErrorIsUnhealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockGenerationChecker{err: errors.New("401")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[CheckGeneration] != CheckError {
		t.Errorf("expected generation %q, got %q", CheckError, r.Checks[CheckGeneration])
	}
}

func TestCheck_BothFail(t *testing.T) {
	svc := New(
		&mockDBPinger{err: errors.New("db down")},
		&mockGenerationChecker{err: errors.New("provider down")},
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NoDatabase(t *testing.T) {
	svc := New(nil, &mockGenerationChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckDatabase]; ok {
		t.Error("database check should be absent when db is nil")
	}
}

func TestCheck_NothingConfigured(t *testing.T) {
	r := New(nil, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected no checks, got %v", r.Checks)
	}
}
