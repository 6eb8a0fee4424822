package mastodon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStatusJSON = `{"id":"1001","content":"<p>hello</p>","account":{"id":"109","acct":"spammer@remote.example"},"mentions":[{"id":"1","acct":"a"}],"extra_field":{"nested":true}}`

func streamFixture(t *testing.T, msgs []string) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/streaming", r.URL.Path)
		assert.Equal(t, "public", r.URL.Query().Get("stream"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		con, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer con.Close()
		for _, m := range msgs {
			if err := con.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		con.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
}

func TestStreamNext(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	payload, err := json.Marshal(testStatusJSON)
	require.NoError(t, err)
	msgs := []string{
		`{"stream":["public"],"event":"update","payload":` + string(payload) + `}`,
		`not json`,
		`{"stream":["public"],"event":"delete","payload":"1000"}`,
	}
	srv := streamFixture(t, msgs)
	defer srv.Close()

	s, err := DialStream(ctx, StreamOptions{Host: srv.URL, AccessToken: "secret"})
	require.NoError(t, err)
	defer s.Close()

	evt, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(EventUpdate, evt.Event)
	status, err := evt.Status()
	require.NoError(t, err)
	assert.Equal("1001", status.ID)
	assert.Equal("109", status.Account.ID)
	assert.Len(status.Mentions, 1)
	assert.JSONEq(testStatusJSON, string(status.Raw))

	// the undecodable message is skipped
	evt, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(EventDelete, evt.Event)
	_, err = evt.Status()
	assert.Error(err)

	_, err = s.Next(ctx)
	require.Error(t, err)
	assert.ErrorIs(err, ErrStreamClosed)

	// non-restartable: the same error again
	_, err2 := s.Next(ctx)
	assert.Equal(err, err2)
}

func TestStreamURL(t *testing.T) {
	assert := assert.New(t)

	u, err := StreamURL("https://mastodon.example", "public")
	require.NoError(t, err)
	assert.Equal("wss://mastodon.example/api/v1/streaming?stream=public", u)

	u, err = StreamURL("http://localhost:3000/", "public:local")
	require.NoError(t, err)
	assert.Equal("ws://localhost:3000/api/v1/streaming?stream=public%3Alocal", u)
}

func TestStatusMissingID(t *testing.T) {
	evt := StreamEvent{Event: EventUpdate, Payload: `{"content":"x"}`}
	_, err := evt.Status()
	assert.Error(t, err)
}
