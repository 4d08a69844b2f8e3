package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		pingErr bool
		path    string
		want    int
	}{
		{name: "healthz ok", pingErr: false, path: "/healthz", want: 200},
		{name: "readyz ok", pingErr: false, path: "/readyz", want: 200},
		{name: "readyz degraded", pingErr: true, path: "/readyz", want: 503},
		{name: "readyz without probe", pingErr: false, path: "/readyz-nil", want: 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ping func(context.Context) error
			path := tc.path
			if path == "/readyz-nil" {
				path = "/readyz"
			} else if tc.path == "/readyz" {
				if tc.pingErr {
					ping = func(context.Context) error { return assertErr{} }
				} else {
					ping = func(context.Context) error { return nil }
				}
			}

			r := gin.New()
			NewHealthHandler(ping).Register(r)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, path, nil)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("want %d got %d", tc.want, w.Code)
			}
			if tc.pingErr && !strings.Contains(w.Body.String(), "store unreachable") {
				t.Fatalf("expected ping error in body, got %s", w.Body.String())
			}
		})
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "store unreachable" }
