package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/noah-isme/vanity-bot/internal/models"
)

// LedgerHeaders are the columns of a ledger export.
var LedgerHeaders = []string{"community_id", "user_id", "announced_at"}

// WriteLedgerCSV writes entries as CSV with a header row.
func WriteLedgerCSV(w io.Writer, entries []models.LedgerEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(LedgerHeaders); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, entry := range entries {
		record := []string{entry.CommunityID, entry.UserID, entry.AnnouncedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// LedgerCSV renders entries into CSV bytes.
func LedgerCSV(entries []models.LedgerEntry) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := WriteLedgerCSV(buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
