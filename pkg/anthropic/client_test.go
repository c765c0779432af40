package anthropic

import (
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsRateLimited(t *testing.T) {
	assert.False(t, IsRateLimited(nil))
	assert.False(t, IsRateLimited(errors.New("plain error")))

	apierr := &sdk.Error{StatusCode: 429}
	assert.True(t, IsRateLimited(apierr))
	assert.True(t, IsRateLimited(eris.Wrap(apierr, "anthropic: create message")))

	serverErr := &sdk.Error{StatusCode: 500}
	assert.False(t, IsRateLimited(serverErr))
}

func TestFromSDKMessage_ConcatenatesTextBlocks(t *testing.T) {
	msg := &sdk.Message{
		ID:    "msg_1",
		Model: "claude-sonnet-4-5-20250929",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "{\"scores\":"},
			{Type: "text", Text: " []}"},
		},
	}
	resp := fromSDKMessage(msg)
	assert.Equal(t, "{\"scores\": []}", resp.Text)
	assert.Equal(t, "msg_1", resp.ID)
}
