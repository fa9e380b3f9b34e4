package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "https://farmaciamontecinoweb.onrender.com", cfg.Farmacia.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Farmacia.Timeout)
	assert.Equal(t, uint32(5), cfg.Farmacia.BreakerFailures)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 20, cfg.Receipt.NameWidth)
	assert.Equal(t, 48, cfg.Printer.Width)
	assert.Equal(t, time.Duration(0), cfg.Catalog.RefreshInterval)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FARMACIA_API_URL", "http://localhost:5000")
	t.Setenv("FARMACIA_API_TIMEOUT_SECONDS", "25")
	t.Setenv("SESSION_STORE", "redis")

	cfg := Load()

	assert.Equal(t, "http://localhost:5000", cfg.Farmacia.BaseURL)
	assert.Equal(t, 25*time.Second, cfg.Farmacia.Timeout)
	assert.Equal(t, "redis", cfg.Session.Store)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", Name: "pos", User: "u", Password: "p", SSLMode: "disable", Timezone: "UTC"}

	assert.Equal(t, "host=db user=u password=p dbname=pos port=5432 sslmode=disable TimeZone=UTC", c.DSN())
}
