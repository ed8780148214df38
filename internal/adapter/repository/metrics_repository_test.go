package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost port=5432 user=test password=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func renderCount(t *testing.T, db *gorm.DB, table string, filters entity.Filters) (string, []interface{}) {
	t.Helper()
	tx, err := countQuery(db, table, filters)
	require.NoError(t, err)

	var n int64
	stmt := tx.Session(&gorm.Session{DryRun: true}).Count(&n).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestCountQuery(t *testing.T) {
	db := newDryRunDB(t)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	t.Run("filters are applied in column order", func(t *testing.T) {
		sql, vars := renderCount(t, db, "email_analyses", entity.Filters{
			"created_at": entity.Range{Gte: from, Lt: to},
			"account_id": entity.Equals("acc-1"),
		})

		assert.Contains(t, sql, `FROM "email_analyses"`)
		assert.Contains(t, sql, "account_id = $1")
		assert.Contains(t, sql, "created_at >= $2 AND created_at < $3")
		assert.Equal(t, []interface{}{"acc-1", from, to}, vars)
	})

	t.Run("in filter", func(t *testing.T) {
		sql, _ := renderCount(t, db, "email_analyses", entity.Filters{
			"threat_level": entity.In("critical", "high"),
		})
		assert.Contains(t, sql, "threat_level IN ($1,$2)")
	})

	t.Run("empty in matches nothing", func(t *testing.T) {
		sql, vars := renderCount(t, db, "email_analyses", entity.Filters{
			"threat_level": entity.In(),
		})
		assert.Contains(t, sql, "1 = 0")
		assert.Empty(t, vars)
	})

	t.Run("no filters", func(t *testing.T) {
		sql, _ := renderCount(t, db, "api_keys", nil)
		assert.Contains(t, sql, `SELECT count(*) FROM "api_keys"`)
		assert.NotContains(t, sql, "WHERE")
	})
}

func TestCountQuery_Rejects(t *testing.T) {
	db := newDryRunDB(t)

	_, err := countQuery(db, "accounts", nil)
	assert.ErrorContains(t, err, "not countable")

	_, err = countQuery(db, "email_analyses", entity.Filters{"account_id; drop": entity.Equals(1)})
	assert.ErrorContains(t, err, "invalid filter column")
}
