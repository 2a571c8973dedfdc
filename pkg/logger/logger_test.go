package logger

import (
	"testing"

	"github.com/GlebRadaev/pointsbank/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name        string
		logLvl      string
		wantErr     string
		enabledLvl  zapcore.Level
		disabledLvl zapcore.Level
	}{
		{
			name:        "Debug level",
			logLvl:      "debug",
			enabledLvl:  zapcore.DebugLevel,
			disabledLvl: zapcore.DebugLevel - 1,
		},
		{
			name:        "Info level",
			logLvl:      "info",
			enabledLvl:  zapcore.InfoLevel,
			disabledLvl: zapcore.DebugLevel,
		},
		{
			name:        "Warn level",
			logLvl:      "warn",
			enabledLvl:  zapcore.WarnLevel,
			disabledLvl: zapcore.InfoLevel,
		},
		{
			name:        "Error level",
			logLvl:      "error",
			enabledLvl:  zapcore.ErrorLevel,
			disabledLvl: zapcore.WarnLevel,
		},
		{
			name:    "Unsupported level",
			logLvl:  "verbose",
			wantErr: "unsupported log lvl: verbose",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(&config.Config{LogLvl: tt.logLvl})

			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, zap.L().Core().Enabled(tt.enabledLvl))
			assert.False(t, zap.L().Core().Enabled(tt.disabledLvl))
		})
	}
}
