package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vanity-bot/internal/models"
)

func TestLedgerCSV(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	out, err := LedgerCSV([]models.LedgerEntry{
		{CommunityID: "100", UserID: "400", AnnouncedAt: at},
		{CommunityID: "100", UserID: "401", AnnouncedAt: at.Add(time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, "community_id,user_id,announced_at\n"+
		"100,400,2024-03-01T05:00:00Z\n"+
		"100,401,2024-03-01T06:00:00Z\n", string(out))
}

func TestLedgerCSVEmpty(t *testing.T) {
	out, err := LedgerCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "community_id,user_id,announced_at\n", string(out))
}
