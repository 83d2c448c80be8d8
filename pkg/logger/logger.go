package logger

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/admitcard-query/pkg/config"
	"github.com/noah-isme/admitcard-query/pkg/middleware/requestid"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "json":
		zapCfg.Encoding = "json"
	default:
		zapCfg.Encoding = "console"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// stdout belongs to the terminal prompts.
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

// Transport logs every outbound request made through next.
func Transport(l *zap.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if l == nil {
		l = zap.NewNop()
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("latency", latency),
		}
		if reqID := requestid.FromRequest(req); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if err != nil {
			l.Warn("http_request_failed", append(fields, zap.Error(err))...)
			return nil, err
		}

		l.Debug("http_request", append(fields, zap.Int("status", resp.StatusCode))...)
		return resp, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
