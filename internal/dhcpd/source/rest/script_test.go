package rest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScript_WaitTrueSucceeds(t *testing.T) {
	err := RunScript(context.Background(), Script{Wait: true}, "true", nil)
	assert.NoError(t, err)
}

func TestRunScript_WaitTruePropagatesFailure(t *testing.T) {
	err := RunScript(context.Background(), Script{Wait: true}, "false", nil)
	assert.Error(t, err)
}

func TestRunScript_WaitFalseReturnsImmediately(t *testing.T) {
	start := time.Now()
	err := RunScript(context.Background(), Script{Wait: false}, "sleep", []string{"1"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
