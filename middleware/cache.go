package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

// HeaderCache reports whether a response came from the cache.
const HeaderCache = "X-Cache"

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheResponse serves GET responses from cache under prefix+RequestURI and stores fresh 200 bodies.
func CacheResponse(cache utils.Cache, ttl time.Duration, prefix string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := prefix + ctx.Request.URL.RequestURI()
		if b, ok := cache.Get(ctx.Request.Context(), key); ok {
			ctx.Header(HeaderCache, "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
			ctx.Abort()
			return
		}

		ctx.Header(HeaderCache, "MISS")
		rec := &bodyRecorder{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = rec
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK && rec.body.Len() > 0 {
			cache.Set(ctx.Request.Context(), key, rec.body.Bytes(), ttl)
		}
	}
}
