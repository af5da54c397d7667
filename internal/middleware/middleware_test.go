package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "wealthbook/internal/errors"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return body.Error.Code
}

func TestPipelineAuthMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		configuredKey string
		requestKey    string
		wantStatus    int
		wantErrorCode string
	}{
		{name: "valid_api_key", configuredKey: "pipeline-key", requestKey: "pipeline-key", wantStatus: http.StatusOK},
		{name: "invalid_api_key", configuredKey: "pipeline-key", requestKey: "wrong", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
		{name: "missing_api_key", configuredKey: "pipeline-key", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
		{name: "prefix_rejected", configuredKey: "pipeline-key", requestKey: "pipeline", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
		{name: "not_configured", requestKey: "any", wantStatus: http.StatusServiceUnavailable, wantErrorCode: "PIPELINE_NOT_CONFIGURED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(PipelineAuthMiddleware(tt.configuredKey))
			r.POST("/pipeline/prices", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/pipeline/prices", http.NoBody)
			if tt.requestKey != "" {
				req.Header.Set("X-API-Key", tt.requestKey)
			}
			rec := serve(r, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantErrorCode != "" {
				if code := errorCode(t, rec); code != tt.wantErrorCode {
					t.Errorf("error code = %q, want %q", code, tt.wantErrorCode)
				}
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	newRouter := func() *gin.Engine {
		r := gin.New()
		r.Use(AuthMiddleware(testSecret))
		r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, Owner(c)) })
		return r
	}

	t.Run("valid_token", func(t *testing.T) {
		token, err := GenerateOwnerToken(testSecret, "anna", time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(newRouter(), req)

		if rec.Code != http.StatusOK || rec.Body.String() != "anna" {
			t.Errorf("expected 200 anna, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("expired_token", func(t *testing.T) {
		token, err := GenerateOwnerToken(testSecret, "anna", -time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(newRouter(), req)

		if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "INVALID_TOKEN" {
			t.Errorf("expected INVALID_TOKEN, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong_secret", func(t *testing.T) {
		token, _ := GenerateOwnerToken("other-secret", "anna", time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(newRouter(), req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("missing_header", func(t *testing.T) {
		rec := serve(newRouter(), httptest.NewRequest(http.MethodGet, "/me", http.NoBody))
		if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "UNAUTHORIZED" {
			t.Errorf("expected UNAUTHORIZED, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("malformed_header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
		req.Header.Set("Authorization", "Token abc")
		rec := serve(newRouter(), req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("empty_secret_refused", func(t *testing.T) {
		if _, err := GenerateOwnerToken("", "anna", time.Hour); err == nil {
			t.Error("expected an error for an empty secret")
		}
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.Wrap(apperrors.ErrMissingPrice, errors.New("no rows")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("database exploded"))
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/app", http.NoBody))
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "MISSING_PRICE" {
		t.Errorf("expected 404 MISSING_PRICE, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/plain", http.NoBody))
	if rec.Code != http.StatusInternalServerError || errorCode(t, rec) != "INTERNAL_ERROR" {
		t.Errorf("expected 500 INTERNAL_ERROR, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("generates_id", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
	})

	t.Run("reuses_incoming_id", func(t *testing.T) {
		const id = "0190f7a4-5c1e-7b3a-9d2e-1f2a3b4c5d6e"
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		req.Header.Set("X-Request-ID", id)
		rec := serve(r, req)
		if got := rec.Header().Get("X-Request-ID"); got != id {
			t.Errorf("expected %s, got %s", id, got)
		}
	})
}
