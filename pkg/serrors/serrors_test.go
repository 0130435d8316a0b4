package serrors

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := errors.Wrap(Input("PLAN_PARSE_FAILED", base, "cannot parse plan"), "import")

	assert.Equal(t, KindInput, KindOf(err))
	assert.Equal(t, "PLAN_PARSE_FAILED", CodeOf(err))
	assert.True(t, Is(err, KindInput))
	require.ErrorIs(t, err, base)
	assert.Equal(t, "import: cannot parse plan: boom", err.Error())

	assert.Equal(t, KindInternal, KindOf(base))
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(base))
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "only message", New(KindUpstream, "X", "only message").Error())
	assert.Equal(t, "inner", Wrap(KindUpstream, "X", errors.New("inner"), "").Error())
}
