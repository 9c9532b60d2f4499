package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vanity-bot/internal/dto"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
	"github.com/noah-isme/vanity-bot/pkg/response"
)

func ledgerServer(t *testing.T, removed int64) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/v1/communities/:id/ledger", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer admin-token" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		response.JSON(c, http.StatusOK, dto.LedgerResetResponse{CommunityID: c.Param("id"), Removed: removed})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteLedgerReset(t *testing.T) {
	srv := ledgerServer(t, 3)

	out, err := remoteLedgerReset(context.Background(), srv.Client(), srv.URL+"/", "admin-token", "100")
	require.NoError(t, err)
	assert.Equal(t, "100", out.CommunityID)
	assert.Equal(t, int64(3), out.Removed)
}

func TestRemoteLedgerResetRejected(t *testing.T) {
	srv := ledgerServer(t, 0)

	_, err := remoteLedgerReset(context.Background(), srv.Client(), srv.URL, "wrong", "100")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
