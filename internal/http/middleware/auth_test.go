package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/pkg/ctxutil"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type fakeVerifier map[string]int

func (f fakeVerifier) VerifyToken(tok string) (int, error) {
	if id, ok := f[tok]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.NewNop(), fakeVerifier{"good": 7})
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"userId": rd.UserID})
	})

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"bad", "Bearer nope", "", http.StatusUnauthorized},
		{"header", "Bearer good", "", http.StatusOK},
		{"query", "", "?token=good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
			if rec.Header().Get(headerRequestID) == "" {
				t.Fatalf("missing %s header", headerRequestID)
			}
		})
	}
}

func TestAttachTraceContextKeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context()).RequestID
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen != "req-123" || rec.Header().Get(headerRequestID) != "req-123" {
		t.Fatalf("request id = %q / %q", seen, rec.Header().Get(headerRequestID))
	}
}
