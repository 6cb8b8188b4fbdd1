package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrapeErrorFormatting(t *testing.T) {
	err := NewElementNotFound("login", ReasonPasswordInputMissing, nil)
	assert.Equal(t, "[element_not_found] login: password-input-missing", err.Error())

	wrapped := NewSession("navigate", "open events page", stderrors.New("net::ERR_ABORTED"))
	assert.Equal(t, "[session] navigate: open events page - net::ERR_ABORTED", wrapped.Error())
}

func TestReasonOf(t *testing.T) {
	err := fmt.Errorf("scrape: %w", NewElementNotFound("login", ReasonEmailInputMissing, nil))
	assert.Equal(t, ReasonEmailInputMissing, ReasonOf(err))

	assert.Equal(t, "missing portal url", ReasonOf(NewConfiguration("missing portal url", nil)))
	assert.Equal(t, "boom", ReasonOf(stderrors.New("boom")))
	assert.Equal(t, "", ReasonOf(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, NewElementNotFound("login", ReasonLoginButtonMissing, nil).IsFatal())
	assert.True(t, NewSession("launch", "chrome exited", nil).IsFatal())
	assert.False(t, NewNavigationTimeout("login", "still on login page", nil).IsFatal())
	assert.False(t, NewFeedParse("feed", "bad json", nil).IsFatal())
}

func TestIsType(t *testing.T) {
	inner := stderrors.New("deadline exceeded")
	err := fmt.Errorf("run: %w", NewSession("paginate", "scroll", inner))
	assert.True(t, IsType(err, ErrorTypeSession))
	assert.False(t, IsType(err, ErrorTypeValidation))
	assert.ErrorIs(t, err, inner)
}
