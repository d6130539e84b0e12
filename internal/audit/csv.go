package audit

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
)

// CSVHeader is the fixed header row of an audit export.
var CSVHeader = []string{"ID", "Action", "Entity Type", "Entity ID", "Date", "User Name", "Username", "Email", "Details"}

// WriteCSV writes a header and one line per record. Every value is quoted and
// embedded quotes are doubled, so a JSON details blob survives intact.
func WriteCSV(w io.Writer, logs []models.AuditLog) error {
	bw := bufio.NewWriter(w)

	if err := writeRow(bw, CSVHeader); err != nil {
		return err
	}
	for _, l := range logs {
		var name, username, email string
		if l.User != nil {
			name, username, email = l.User.DisplayName(), l.User.Username, l.User.Email
		}
		details := string(l.Details)
		if details == "" {
			details = "{}"
		}

		row := []string{
			strconv.FormatUint(l.ID, 10),
			l.Action,
			l.EntityType,
			strconv.FormatUint(l.EntityID, 10),
			l.CreatedAt.UTC().Format(time.RFC3339),
			name,
			username,
			email,
			details,
		}
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
