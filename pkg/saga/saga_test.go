package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompensate_RunsNewestFirst(t *testing.T) {
	t.Parallel()

	var order []string
	s := New("import", nil)
	s.Defer("plan", func(context.Context) error {
		order = append(order, "plan")
		return nil
	})
	s.Defer("tags", func(context.Context) error {
		order = append(order, "tags")
		return nil
	})
	require.Equal(t, 2, s.Len())

	s.Compensate(context.Background())
	assert.Equal(t, []string{"tags", "plan"}, order)
	assert.Zero(t, s.Len())
}

func TestCompensate_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	var ran []string
	s := New("upload", logrus.NewEntry(logger))
	s.Defer("first", func(context.Context) error {
		ran = append(ran, "first")
		return nil
	})
	s.Defer("second", func(context.Context) error {
		ran = append(ran, "second")
		return errors.New("delete failed")
	})

	s.Compensate(context.Background())
	assert.Equal(t, []string{"second", "first"}, ran)

	var failed int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			failed++
			assert.Equal(t, "second", e.Data["compensation"])
		}
	}
	assert.Equal(t, 1, failed)
}

func TestCompensate_IgnoresParentCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	s := New("import", nil)
	s.Defer("plan", func(ctx context.Context) error {
		sawErr = ctx.Err()
		return nil
	})
	s.Compensate(ctx)
	assert.NoError(t, sawErr)
}

func TestRun(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	compensated := false
	s := New("import", nil)
	err := s.Run(context.Background(), func(context.Context) error {
		s.Defer("plan", func(context.Context) error {
			compensated = true
			return nil
		})
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, compensated)

	compensated = false
	s = New("import", nil)
	err = s.Run(context.Background(), func(context.Context) error {
		s.Defer("plan", func(context.Context) error {
			compensated = true
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	assert.False(t, compensated)
}
