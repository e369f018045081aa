package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"claimintake/internal/model"
)

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "claims:claims@tcp(127.0.0.1:1)/claimintake?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestListByCaseOrdersWithTiebreaker(t *testing.T) {
	db := dryRunDB(t)

	var files []model.File
	stmt := db.Where("tenant_id = ? AND case_id = ?", "t1", "c1").
		Scopes(uploadOrder).
		Find(&files).Statement

	assert.Regexp(t, `ORDER BY uploaded_at ASC,\s*id ASC`, stmt.SQL.String())
}
