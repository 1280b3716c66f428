package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/okian/crema/pkg/metrics"
)

// requestMetrics records per-endpoint request counters and latency.
func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}

		endpoint := c.Path()
		method := c.Request().Method
		code := strconv.Itoa(status)
		metrics.RecordHTTPRequest(endpoint, method, code)
		metrics.RecordHTTPRequestDuration(endpoint, method, code, float64(time.Since(start).Nanoseconds())/1e6)
		return err
	}
}
