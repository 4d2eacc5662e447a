package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/drivingschool/core"
)

func TestURL(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{
		Engine:   "postgres",
		Host:     "db",
		Port:     5432,
		User:     "autoschool",
		Password: "p@ss",
		Name:     "autoschool",
	}}
	assert.Equal(t, "postgres://autoschool:p%40ss@db:5432/autoschool?sslmode=require&timezone=utc", URL(conf))

	conf.Database.DisableTLS = true
	assert.Equal(t, "postgres://autoschool:p%40ss@db:5432/autoschool?sslmode=disable&timezone=utc", URL(conf))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir(migrationsDir)
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)
}
