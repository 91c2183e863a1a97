package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/remix-community/remixget/pkg/cli/config"
)

func TestLogger_Configure(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		json    bool
		wantErr bool
	}{
		{
			name:  "Valid level: debug",
			level: "debug",
		},
		{
			name:  "Valid level: DEBUG (case insensitive)",
			level: "DEBUG",
		},
		{
			name:  "Valid level: info",
			level: "info",
		},
		{
			name:  "Valid level: warn",
			level: "warn",
		},
		{
			name:  "Valid level: error",
			level: "error",
		},
		{
			name:  "JSON handler",
			level: "info",
			json:  true,
		},
		{
			name:    "Invalid level",
			level:   "verbose",
			wantErr: true,
		},
		{
			name:    "Empty level",
			level:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Logger{Level: tt.level, JSON: tt.json}

			logger, err := cfg.Configure()
			if tt.wantErr {
				gt.Error(t, err)
				return
			}

			gt.NoError(t, err)
			gt.Value(t, logger).NotNil()
		})
	}
}
