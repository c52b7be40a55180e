package cache

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	pcache "github.com/narayanprabad/InvestWise/pkg/cache"
)

const headerCache = "X-Cache"

// ResponseCache serves repeated GET requests from c for ttl. Only 200 responses are stored.
func ResponseCache(c BytesCache, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			if c == nil || ttl <= 0 || req.Method != http.MethodGet {
				return next(ctx)
			}

			key := "resp:" + pcache.HashKey(req.URL.RequestURI())
			if b, ok, err := c.GetBytes(req.Context(), key); err == nil && ok {
				ctx.Response().Header().Set(headerCache, "HIT")
				return ctx.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, b)
			}

			rec := &bodyRecorder{ResponseWriter: ctx.Response().Writer}
			ctx.Response().Writer = rec
			ctx.Response().Header().Set(headerCache, "MISS")
			if err := next(ctx); err != nil {
				return err
			}
			if ctx.Response().Status == http.StatusOK && rec.buf.Len() > 0 {
				_ = c.SetBytes(req.Context(), key, rec.buf.Bytes(), ttl)
			}
			return nil
		}
	}
}

type bodyRecorder struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}
