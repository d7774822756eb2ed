package bootstrap

import (
	"fmt"
	"os"

	"hydra/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the process logger. Console output uses colored levels;
// json output is meant for log shippers. Logs go to stderr so command output on
// stdout stays clean.
func InitLogger(level, format string) (*zap.Logger, *zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var encoder zapcore.Encoder
	switch format {
	case "json":
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console", "":
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, logger.Sugar(), nil
}

// Init loads the configuration and builds the logger it describes. A non-empty
// levelOverride replaces log.level.
func Init(path, levelOverride string) (*config.Config, *zap.Logger, *zap.SugaredLogger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if levelOverride != "" {
		cfg.Log.Level = levelOverride
	}

	logger, sugar, err := InitLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if used := config.ConfigFileUsed(); used == "" {
		sugar.Debug("No config file found, using defaults and env vars")
	} else {
		sugar.Debugw("Config loaded", "file", used)
	}
	return cfg, logger, sugar, nil
}
