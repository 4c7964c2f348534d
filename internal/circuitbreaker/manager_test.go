package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/CodeArche/proofgate/internal/config"
)

var errUpstream = errors.New("upstream down")

func TestManager_Disabled_PassThrough(t *testing.T) {
	m := NewManager(Config{Enabled: false})

	for i := 0; i < 20; i++ {
		if _, err := m.Execute(ServiceGateway, func() (interface{}, error) { return nil, errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("expected upstream error on call %d, got %v", i, err)
		}
	}
	if got := m.State(ServiceGateway); got != "disabled" {
		t.Errorf("expected disabled, got %s", got)
	}
}

func TestManager_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gateway.ConsecutiveFailures = 3
	cfg.Gateway.Timeout = time.Hour
	m := NewManager(cfg)

	for i := 0; i < 3; i++ {
		_, _ = m.Execute(ServiceGateway, func() (interface{}, error) { return nil, errUpstream })
	}

	if got := m.State(ServiceGateway); got != "open" {
		t.Fatalf("expected open breaker, got %s", got)
	}

	called := false
	_, err := m.Execute(ServiceGateway, func() (interface{}, error) {
		called = true
		return nil, nil
	})
	if called {
		t.Error("open breaker must not invoke the call")
	}
	if !IsOpen(err) {
		t.Errorf("expected open-state error, got %v", err)
	}

	// Mail has its own breaker.
	if got := m.State(ServiceMail); got != "closed" {
		t.Errorf("expected mail breaker closed, got %s", got)
	}
}

func TestManager_ReturnsResultAlongsideFailure(t *testing.T) {
	m := NewManager(DefaultConfig())

	res, err := m.Execute(ServiceGateway, func() (interface{}, error) { return 502, errUpstream })
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if res != 502 {
		t.Errorf("expected result to survive a counted failure, got %v", res)
	}
	if c := m.Counts(ServiceGateway); c.TotalFailures != 1 || c.Requests != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
}

func TestNewManagerFromConfig(t *testing.T) {
	m := NewManagerFromConfig(config.CircuitBreakerConfig{
		Enabled: true,
		Gateway: config.BreakerServiceConfig{MaxRequests: 1, ConsecutiveFailures: 2},
		Mail:    config.BreakerServiceConfig{MaxRequests: 1, ConsecutiveFailures: 2},
	})

	if m.State(ServiceGateway) != "closed" || m.State(ServiceMail) != "closed" {
		t.Errorf("expected both breakers closed, got %s/%s", m.State(ServiceGateway), m.State(ServiceMail))
	}
	if got := m.State(ServiceType("unknown")); got != "not_configured" {
		t.Errorf("expected not_configured, got %s", got)
	}
	if m.config.Gateway.ConsecutiveFailures != 2 || m.config.Gateway.FailureRatio != 0 {
		t.Errorf("explicit trip settings must be kept, got %+v", m.config.Gateway)
	}
}

func TestNewManagerFromConfig_FillsZeroSettings(t *testing.T) {
	m := NewManagerFromConfig(config.CircuitBreakerConfig{Enabled: true})
	def := DefaultConfig()

	if m.config.Gateway != def.Gateway {
		t.Errorf("gateway: expected defaults %+v, got %+v", def.Gateway, m.config.Gateway)
	}
	if m.config.Mail != def.Mail {
		t.Errorf("mail: expected defaults %+v, got %+v", def.Mail, m.config.Mail)
	}
}

func TestManager_NilIsPassThrough(t *testing.T) {
	var m *Manager
	res, err := m.Execute(ServiceMail, func() (interface{}, error) { return "ok", nil })
	if err != nil || res != "ok" {
		t.Errorf("nil manager should pass through, got %v %v", res, err)
	}
}
