package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - scheduler",
			input: "scheduler",
			expected: map[ServiceMode]bool{
				ServiceModeScheduler: true,
			},
			expectError: false,
		},
		{
			name:  "single service - hub",
			input: "hub",
			expected: map[ServiceMode]bool{
				ServiceModeHub: true,
			},
			expectError: false,
		},
		{
			name:  "multiple services - scheduler and hub",
			input: "scheduler,hub",
			expected: map[ServiceMode]bool{
				ServiceModeScheduler: true,
				ServiceModeHub:       true,
			},
			expectError: false,
		},
		{
			name:  "all services",
			input: "scheduler,hub,reaper",
			expected: map[ServiceMode]bool{
				ServiceModeScheduler: true,
				ServiceModeHub:       true,
				ServiceModeReaper:    true,
			},
			expectError: false,
		},
		{
			name:  "services with spaces",
			input: " scheduler , hub , reaper ",
			expected: map[ServiceMode]bool{
				ServiceModeScheduler: true,
				ServiceModeHub:       true,
				ServiceModeReaper:    true,
			},
			expectError: false,
		},
		{
			name:  "duplicate services",
			input: "scheduler,scheduler,hub",
			expected: map[ServiceMode]bool{
				ServiceModeScheduler: true,
				ServiceModeHub:       true,
			},
			expectError: false,
		},
		{
			name:        "empty string",
			input:       "",
			expected:    nil,
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expected:    nil,
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "scheduler,invalid-service",
			expected:    nil,
			expectError: true,
		},
		{
			name:        "mixed valid and invalid",
			input:       "scheduler,hub,invalid",
			expected:    nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("expected %d services, got %d", len(tt.expected), len(result))
				return
			}

			for service, expected := range tt.expected {
				if result[service] != expected {
					t.Errorf("expected service %s to be %v, got %v", service, expected, result[service])
				}
			}
		})
	}
}

func TestConfig_GetEnabledServices(t *testing.T) {
	tests := []struct {
		name        string
		services    string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "default configuration",
			services: "scheduler,hub",
			expected: map[ServiceMode]bool{
				ServiceModeScheduler: true,
				ServiceModeHub:       true,
			},
			expectError: false,
		},
		{
			name:     "reaper only",
			services: "reaper",
			expected: map[ServiceMode]bool{
				ServiceModeReaper: true,
			},
			expectError: false,
		},
		{
			name:        "invalid configuration",
			services:    "invalid-service",
			expected:    nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Services: tt.services}
			result, err := cfg.GetEnabledServices()

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("expected %d services, got %d", len(tt.expected), len(result))
				return
			}

			for service, expected := range tt.expected {
				if result[service] != expected {
					t.Errorf("expected service %s to be %v, got %v", service, expected, result[service])
				}
			}
		})
	}
}

func TestAppConfig_ServiceFlags(t *testing.T) {
	cfg := AppConfig{Services: "scheduler,reaper"}

	if !cfg.IsSchedulerEnabled() {
		t.Errorf("expected scheduler to be enabled")
	}
	if cfg.IsHubEnabled() {
		t.Errorf("expected hub to be disabled")
	}
	if !cfg.IsReaperEnabled() {
		t.Errorf("expected reaper to be enabled")
	}

	broken := AppConfig{Services: "nonsense"}
	if broken.IsSchedulerEnabled() || broken.IsHubEnabled() || broken.IsReaperEnabled() {
		t.Errorf("expected all services disabled for invalid configuration")
	}
}

func TestExecutorConfig_Sanitize(t *testing.T) {
	cfg := ExecutorConfig{
		MaxConcurrent:       0,
		AdmissionsPerSecond: -1,
		DispatchTimeout:     0,
	}

	cfg.Sanitize()

	if cfg.MaxConcurrent != 1 {
		t.Errorf("expected MaxConcurrent 1, got %d", cfg.MaxConcurrent)
	}
	if cfg.AdmissionsPerSecond != 1 {
		t.Errorf("expected AdmissionsPerSecond 1, got %d", cfg.AdmissionsPerSecond)
	}
	if cfg.DispatchTimeout != 30*time.Minute {
		t.Errorf("expected DispatchTimeout 30m, got %v", cfg.DispatchTimeout)
	}
}

func TestReaperConfig_Sanitize(t *testing.T) {
	cfg := ReaperConfig{
		Interval:        time.Second,
		RunningGrace:    0,
		CompletedMaxAge: time.Minute,
		FailedMaxAge:    time.Minute,
		BatchSize:       100000,
	}

	cfg.Sanitize()

	if cfg.Interval != time.Minute {
		t.Errorf("expected Interval 1m, got %v", cfg.Interval)
	}
	if cfg.RunningGrace != time.Minute {
		t.Errorf("expected RunningGrace 1m, got %v", cfg.RunningGrace)
	}
	if cfg.CompletedMaxAge != time.Hour {
		t.Errorf("expected CompletedMaxAge 1h, got %v", cfg.CompletedMaxAge)
	}
	if cfg.FailedMaxAge != time.Hour {
		t.Errorf("expected FailedMaxAge 1h, got %v", cfg.FailedMaxAge)
	}
	if cfg.BatchSize != 10000 {
		t.Errorf("expected BatchSize capped at 10000, got %d", cfg.BatchSize)
	}
}

func TestSchedulerConfig_Sanitize(t *testing.T) {
	cfg := SchedulerConfig{Timezone: "  ", NextRunFallback: 0}

	cfg.Sanitize()

	if cfg.Timezone != "Asia/Shanghai" {
		t.Errorf("expected default timezone, got %q", cfg.Timezone)
	}
	if cfg.NextRunFallback != time.Hour {
		t.Errorf("expected NextRunFallback 1h, got %v", cfg.NextRunFallback)
	}
}

func TestAppConfig_ParseExecutorEnv(t *testing.T) {
	t.Setenv("EXECUTOR_MAX_CONCURRENT", "7")
	t.Setenv("EXECUTOR_ADMISSIONS_PER_SECOND", "9")
	t.Setenv("EXECUTOR_DISPATCH_TIMEOUT", "10m")
	t.Setenv("HUB_AUTH_TOKENS", "alpha,beta")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Executor.MaxConcurrent != 7 {
		t.Errorf("expected MaxConcurrent 7, got %d", cfg.Executor.MaxConcurrent)
	}
	if cfg.Executor.AdmissionsPerSecond != 9 {
		t.Errorf("expected AdmissionsPerSecond 9, got %d", cfg.Executor.AdmissionsPerSecond)
	}
	if cfg.Executor.DispatchTimeout != 10*time.Minute {
		t.Errorf("expected DispatchTimeout 10m, got %v", cfg.Executor.DispatchTimeout)
	}
	if len(cfg.Hub.AuthTokens) != 2 || cfg.Hub.AuthTokens[0] != "alpha" || cfg.Hub.AuthTokens[1] != "beta" {
		t.Errorf("expected two auth tokens, got %v", cfg.Hub.AuthTokens)
	}
}

func TestAppConfig_DetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	cfg := AppConfig{Services: "scheduler"}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Errorf("expected dev mode from NODE_ENV")
	}
}
