package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/vanity-bot/internal/dto"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
)

type ledgerResetEnvelope struct {
	Data  *dto.LedgerResetResponse `json:"data"`
	Error *appErrors.Error         `json:"error"`
}

// remoteLedgerReset resets a ledger through a running server so its loaded
// state is cleared at once.
func remoteLedgerReset(ctx context.Context, client *http.Client, baseURL, token, communityID string) (*dto.LedgerResetResponse, error) {
	endpoint := strings.TrimRight(baseURL, "/") + "/v1/communities/" + url.PathEscape(communityID) + "/ledger"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	var body ledgerResetEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Error != nil {
		if body.Error != nil {
			return nil, body.Error
		}
		return nil, fmt.Errorf("server answered %d", resp.StatusCode)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("server answered without data")
	}
	return body.Data, nil
}
