package config_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	. "github.com/fanhub-app/fanhub/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	StringValue string   `env:"STRING_VALUE" default:"default"`
	IntValue    int      `env:"INT_VALUE" default:"42"`
	BoolValue   bool     `env:"BOOL_VALUE" default:"true"`
	ListValue   []string `env:"LIST_VALUE" default:"/a/,/b/"`
	NoEnvTag    string
	Nested      testNestedConfig
}

type testNestedConfig struct {
	NestedString string `env:"NESTED_STRING" default:"nested-default"`
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		envVars map[string]string
		want    testConfig
		wantErr bool
	}{
		{
			name:    "uses default values when env vars not set",
			prefix:  "",
			envVars: map[string]string{},
			want: testConfig{
				StringValue: "default",
				IntValue:    42,
				BoolValue:   true,
				ListValue:   []string{"/a/", "/b/"},
				Nested: testNestedConfig{
					NestedString: "nested-default",
				},
			},
		},
		{
			name:   "reads environment variables",
			prefix: "",
			envVars: map[string]string{
				"STRING_VALUE":  "env-value",
				"INT_VALUE":     "123",
				"BOOL_VALUE":    "false",
				"LIST_VALUE":    "/x/, /y/ ,/z/",
				"NESTED_STRING": "env-nested",
			},
			want: testConfig{
				StringValue: "env-value",
				IntValue:    123,
				BoolValue:   false,
				ListValue:   []string{"/x/", "/y/", "/z/"},
				Nested: testNestedConfig{
					NestedString: "env-nested",
				},
			},
		},
		{
			name:   "prefers namespaced variables",
			prefix: "APP_SVC",
			envVars: map[string]string{
				"STRING_VALUE":         "plain",
				"APP_SVC_STRING_VALUE": "namespaced",
			},
			want: testConfig{
				StringValue: "namespaced",
				IntValue:    42,
				BoolValue:   true,
				ListValue:   []string{"/a/", "/b/"},
				Nested: testNestedConfig{
					NestedString: "nested-default",
				},
			},
		},
		{
			name:   "falls back through namespace parts",
			prefix: "APP_SVC",
			envVars: map[string]string{
				"APP_STRING_VALUE": "app-level",
			},
			want: testConfig{
				StringValue: "app-level",
				IntValue:    42,
				BoolValue:   true,
				ListValue:   []string{"/a/", "/b/"},
				Nested: testNestedConfig{
					NestedString: "nested-default",
				},
			},
		},
		{
			name:   "invalid int value",
			prefix: "",
			envVars: map[string]string{
				"INT_VALUE": "not-a-number",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var cfg testConfig

			err := Parse(context.Background(), &cfg, tt.prefix)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cfg.StringValue != tt.want.StringValue {
				t.Errorf("StringValue = %q, want %q", cfg.StringValue, tt.want.StringValue)
			}
			if cfg.IntValue != tt.want.IntValue {
				t.Errorf("IntValue = %d, want %d", cfg.IntValue, tt.want.IntValue)
			}
			if cfg.BoolValue != tt.want.BoolValue {
				t.Errorf("BoolValue = %t, want %t", cfg.BoolValue, tt.want.BoolValue)
			}
			if !reflect.DeepEqual(cfg.ListValue, tt.want.ListValue) {
				t.Errorf("ListValue = %v, want %v", cfg.ListValue, tt.want.ListValue)
			}
			if cfg.Nested.NestedString != tt.want.Nested.NestedString {
				t.Errorf("NestedString = %q, want %q", cfg.Nested.NestedString, tt.want.Nested.NestedString)
			}
		})
	}
}

//nolint:paralleltest
func TestParse_NotAStruct(t *testing.T) {
	var notAStruct int

	err := Parse(context.Background(), &notAStruct, "")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

//nolint:paralleltest
func TestParse_MissingRequired(t *testing.T) {
	type requiredConfig struct {
		EnvConfig

		Value string `env:"REQUIRED_VALUE"`
	}

	var cfg requiredConfig

	err := Parse(context.Background(), &cfg, "")
	if !errors.Is(err, ErrVarNotSet) {
		t.Fatalf("err = %v, want ErrVarNotSet", err)
	}
}
