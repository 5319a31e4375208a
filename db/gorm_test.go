package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"soundfolio/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db.local",
		DBPort:     "3307",
		DBUser:     "player",
		DBPassword: "p@ss",
		DBName:     "soundfolio",
	}

	dsn := DSN(cfg)
	assert.Contains(t, dsn, "player:p@ss@tcp(db.local:3307)/soundfolio")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
