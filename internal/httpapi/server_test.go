package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t31hub/t31hub/internal/config"
)

type fakeLineStatus struct {
	line        int
	mode        string
	ctsAsserted bool
}

func (f fakeLineStatus) Status() (int, string, bool) { return f.line, f.mode, f.ctsAsserted }

func TestNewReturnsNilWhenDisabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.HTTP.Enabled = false
	s := New(cfg, &fakePubSub{}, nil, nil)
	assert.Nil(t, s, "New should return nil when HTTP is disabled")
}

func TestHandleLinesReportsEveryLine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{
		lines: []LineStatusProvider{
			fakeLineStatus{line: 0, mode: "hdlc", ctsAsserted: true},
			fakeLineStatus{line: 1, mode: "offhook-command", ctsAsserted: false},
		},
	}

	r := gin.New()
	r.GET("/api/v1/lines", s.handleLines)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lines", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []struct {
		Line        int    `json:"line"`
		Mode        string `json:"mode"`
		CTSAsserted bool   `json:"cts_asserted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "hdlc", got[0].Mode)
	assert.True(t, got[0].CTSAsserted)
	assert.Equal(t, "offhook-command", got[1].Mode)
	assert.False(t, got[1].CTSAsserted)
}

func TestRunReturnsImmediatelyOnNilServer(t *testing.T) {
	var s *Server
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx))
}
