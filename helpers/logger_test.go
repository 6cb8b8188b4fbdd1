package helpers

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(logger.New(&buf))

	l.LogError("Publisher", errors.New("test error"))
	assert.Contains(t, buf.String(), `"component":"Publisher"`)
	assert.Contains(t, buf.String(), "test error")
	assert.NotContains(t, buf.String(), `"reason"`)

	buf.Reset()
	l.LogError("Scrape", apperrors.NewElementNotFound("login", apperrors.ReasonPasswordInputMissing, nil))
	assert.Contains(t, buf.String(), `"reason":"`+apperrors.ReasonPasswordInputMissing+`"`)

	buf.Reset()
	l.LogInfo("Published %d events", 3)
	assert.Contains(t, buf.String(), "Published 3 events")
}
