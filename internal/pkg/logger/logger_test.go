package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/thesheunit/storefront/internal/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "warn"

	l := New(cfg)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	cfg.Logging.Format = "text"
	cfg.Logging.Level = "nonsense"
	l = New(cfg)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}
