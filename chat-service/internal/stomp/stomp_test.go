package stomp

import (
	"testing"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSkipsHeartBeats(t *testing.T) {
	data := []byte("\nSEND\ndestination:/chat/42/sendMessage\n\n{\"content\":\"hi\"}\x00\n")

	frames, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, frame.SEND, frames[0].Command)
	assert.Equal(t, "/chat/42/sendMessage", frames[0].Header.Get(HeaderDestination))
	assert.JSONEq(t, `{"content":"hi"}`, string(frames[0].Body))
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(Message("/topic/chat/1", "sub-0", "m-1", JSONContent, []byte(`{"a":1}`)))
	require.NoError(t, err)

	frames, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	f := frames[0]
	assert.Equal(t, frame.MESSAGE, f.Command)
	assert.Equal(t, "sub-0", f.Header.Get(HeaderSubscription))
	assert.Equal(t, "7", f.Header.Get(HeaderContentLength))
	assert.Equal(t, `{"a":1}`, string(f.Body))
}

func TestDestinations(t *testing.T) {
	id, ok := ParseSendDestination("/chat/abc/sendMessage")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	id, ok = ParseSendDestination("/app/chat/abc/sendMessage")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	for _, bad := range []string{"/chat//sendMessage", "/chat/abc", "/chat/a/b/sendMessage", "/topic/chat/abc"} {
		_, ok := ParseSendDestination(bad)
		assert.False(t, ok, bad)
	}

	id, ok = ParseChatTopic(ChatTopic("abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
	_, ok = ParseChatTopic("/topic/chat/")
	assert.False(t, ok)

	assert.True(t, IsErrorQueue("/user/queue/errors"))
	assert.False(t, IsErrorQueue("/queue/other"))
}

func TestSupportsVersion(t *testing.T) {
	assert.True(t, SupportsVersion(""))
	assert.True(t, SupportsVersion("1.1,1.2"))
	assert.False(t, SupportsVersion("1.0,1.1"))
}
