package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convodesk/convodesk/config"
	"github.com/convodesk/convodesk/domains/autoreply"
)

type stubDecider struct{}

func (stubDecider) ShouldAutoReply(ctx context.Context, text string, history []string) (autoreply.Decision, error) {
	return autoreply.Decision{}, nil
}

func TestAutoReplyDeciderHookDefaultsOff(t *testing.T) {
	assert.Nil(t, newAutoReplyDecider(&config.Config{}))
}

func TestAutoReplyDeciderHookIsReplaceable(t *testing.T) {
	original := newAutoReplyDecider
	defer func() { newAutoReplyDecider = original }()

	newAutoReplyDecider = func(c *config.Config) autoreply.Decider { return stubDecider{} }

	decider := newAutoReplyDecider(&config.Config{})
	require.NotNil(t, decider)
	_, err := decider.ShouldAutoReply(context.Background(), "hello", nil)
	assert.NoError(t, err)
}
