package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func Test_fail_LogsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// simulate RequestID + request-scoped logger middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-settle-1")
		c.Set("logger", &logger)
		c.Next()
	})

	r.POST("/payments/1/settle", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "ledger write failed")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/1/settle", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-settle-1" || resp.Code != ErrCodeInternal || resp.Message != "ledger write failed" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_fail_ClientErrorsAreNotLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})

	r.POST("/auth/login", func(c *gin.Context) {
		fail(c, http.StatusForbidden, ErrCodeBanned, "user is banned")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d", w.Code)
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not hit the error log, got: %s", buf.String())
	}
}

func Test_ResponseHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-helpers")
		c.Next()
	})

	// exported Fail is what the router's no-route handler uses
	r.GET("/referrals/404", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "referral not found")
	})
	r.POST("/referrals", func(c *gin.Context) {
		ok(c, http.StatusCreated, gin.H{"referrer_id": int64(42), "referred_id": int64(43)})
	})
	r.DELETE("/bans/42", func(c *gin.Context) {
		noContent(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/referrals/404", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json 404: %v", err)
	}
	if er.RequestID != "rid-helpers" || er.Code != ErrCodeNotFound || er.Message != "referral not found" {
		t.Fatalf("unexpected 404 body: %+v", er)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/referrals", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	var created map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("json 201: %v", err)
	}
	if int64(created["referrer_id"].(float64)) != 42 || int64(created["referred_id"].(float64)) != 43 {
		t.Fatalf("unexpected 201 body: %#v", created)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/bans/42", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body for 204")
	}
}
