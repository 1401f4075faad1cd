package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/meshly/asset-marketplace/internal/config"
)

// captureWriter tees the response body so a successful reply can be
// cached after it has been sent to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.size < cw.limit {
		if remain := cw.limit - cw.size; int64(len(b)) <= remain {
			cw.buf.Write(b)
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cacheKey hashes the concrete request URL, not the registered route
// pattern, so parameterized routes cache per document.
func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Request().URL.Path + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// Cached entries pack [4 bytes status][content-type][0x00][body] so a hit
// can be replayed without re-serializing anything.
func encodeEntry(status int, contentType string, body []byte) []byte {
	out := make([]byte, 4+len(contentType)+1+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	copy(out[4:], contentType)
	out[4+len(contentType)] = 0
	copy(out[4+len(contentType)+1:], body)
	return out
}

func decodeEntry(bs []byte) (status int, contentType string, body []byte, ok bool) {
	if len(bs) < 5 {
		return 0, "", nil, false
	}
	sep := bytes.IndexByte(bs[4:], 0)
	if sep < 0 {
		return 0, "", nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	contentType = string(bs[4 : 4+sep])
	body = bs[4+sep+1:]
	return status, contentType, body, true
}

// ResponseCache serves repeated GETs on a route from Redis. Only 200
// responses are stored, anything else flows through untouched. Pass-through
// when disabled or when Redis is unavailable.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, contentType, body, ok := decodeEntry(bs); ok {
					c.Response().Header().Set(echo.HeaderContentType, contentType)
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, werr := c.Response().Write(body)
					return werr
				}
			}

			cw := &captureWriter{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && int64(cw.buf.Len()) == cw.size {
				entry := encodeEntry(cw.status, c.Response().Header().Get(echo.HeaderContentType), cw.buf.Bytes())
				_ = rdb.SetEx(ctx, key, entry, ttl).Err()
			}
			return nil
		}
	}
}
