package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
)

// PostgresArchive stores forwarded measurements in a Postgres/Timescale
// table for later inspection. It is an optional side channel; delivery to
// the category sockets never waits on it.
type PostgresArchive struct {
	db        *sql.DB
	tableName string
}

func NewPostgresArchive(db *sql.DB, table string) *PostgresArchive {
	return &PostgresArchive{db: db, tableName: table}
}

func (a *PostgresArchive) Name() string { return "postgres" }

func (a *PostgresArchive) WriteBatch(measurements []domain.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(a.tableName)
	b.WriteString(" (path, ts, value, source) VALUES ")

	args := make([]any, 0, len(measurements)*4)
	for i, m := range measurements {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4))
		value, err := json.Marshal(m.Value)
		if err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}

		args = append(args,
			m.Path,
			time.UnixMilli(m.Time).UTC(),
			value,
			m.Source,
		)
	}

	b.WriteString(" ON CONFLICT (path, ts, source) DO NOTHING")

	_, err := a.db.Exec(b.String(), args...)
	return err
}

var _ ports.Archive = (*PostgresArchive)(nil)
