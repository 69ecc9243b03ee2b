package handlers

import (
	"errors"
	"net/http"
	"testing"

	"cputempwidget/internal/models"
	"cputempwidget/internal/service"
)

func TestUserIdMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		header     http.Header
		parseErr   error
		wantStatus int
	}{
		{
			name:       "missing header",
			header:     nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong scheme",
			header: func() http.Header {
				h := http.Header{}
				h.Set("Authorization", "Basic abc123")
				return h
			}(),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "bearer without token",
			header: func() http.Header {
				h := http.Header{}
				h.Set("Authorization", "Bearer")
				return h
			}(),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     authHeader("bad-token"),
			parseErr:   errors.New("token expired"),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token passes through",
			header:     authHeader("good-token"),
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{parseID: 5, parseErr: tc.parseErr}
			mon := &mockMonitor{snapshot: models.Snapshot{}}
			r := newTestRouter(&service.Service{Monitor: mon, Authorization: auth})

			w := doRequest(r, http.MethodGet, "/api/v1/widget/state", nil, tc.header)
			if w.Code != tc.wantStatus {
				t.Fatalf("status: want %d, got %d (%s)", tc.wantStatus, w.Code, w.Body.String())
			}
			if tc.wantStatus == http.StatusOK && auth.lastParseToken != "good-token" {
				t.Errorf("token not forwarded to ParseToken, got %q", auth.lastParseToken)
			}
		})
	}
}
