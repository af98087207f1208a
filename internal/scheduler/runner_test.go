package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_AddValidatesSpec(t *testing.T) {
	r := New(context.Background(), zerolog.Nop())

	_, err := r.Add("dashboard", "0 */5 * * * *", func(context.Context) error { return nil })
	require.NoError(t, err)

	_, err = r.Add("broken", "every five minutes", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunner_RunLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.WithValue(context.Background(), struct{}{}, "base")
	r := New(ctx, zerolog.New(&buf))

	var got context.Context
	r.run("dashboard", func(ctx context.Context) error {
		got = ctx
		return errors.New("redis down")
	})
	assert.Equal(t, "base", got.Value(struct{}{}))
	assert.Contains(t, buf.String(), `"job":"dashboard"`)
	assert.Contains(t, buf.String(), "redis down")
}

func TestRunner_StartStop(t *testing.T) {
	r := New(nil, zerolog.Nop())
	r.Start()
	r.Stop()
}
