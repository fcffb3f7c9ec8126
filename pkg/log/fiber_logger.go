package log

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "missiond",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"api"})

	httpRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "missiond",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of the HTTP requests.",
	}, []string{"api", "path", "method", "code"})
)

type LoggerConfig struct {
	Name       string
	UserGetter func(c *fiber.Ctx) string
}

// NewFiberLogger logs every request with status, caller identity and
// latency, and records request metrics. Client errors and up log as
// warnings.
func NewFiberLogger(conf *LoggerConfig) fiber.Handler {
	logger := slog.Default().With(slog.String("logger", conf.Name))

	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		observe(conf.Name, c, elapsed)

		attrs := []any{
			slog.String("client", c.IP()+":"+c.Port()),
			slog.Int64("ms", elapsed.Milliseconds()),
		}

		if chainErr != nil {
			attrs = append(attrs, slog.Any("error", chainErr))
		}

		if conf.UserGetter != nil {
			if user := conf.UserGetter(c); user != "" {
				attrs = append(attrs, slog.String("user", user))
			}
		}

		msg := fmt.Sprintf("%d %s %s", status, c.Method(), c.OriginalURL())

		if status >= fiber.StatusBadRequest {
			logger.Warn(msg, attrs...)
		} else {
			logger.Info(msg, attrs...)
		}

		return chainErr
	}
}

func observe(api string, ctx *fiber.Ctx, t time.Duration) {
	httpRequestsDuration.With(prometheus.Labels{"api": api}).Observe(t.Seconds())

	httpRequestsCount.With(prometheus.Labels{
		"api":    api,
		"path":   ctx.Path(),
		"method": ctx.Method(),
		"code":   strconv.Itoa(ctx.Response().StatusCode()),
	}).Inc()
}
