package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/mcpadmin/mock"
	"github.com/viant/mcpadmin/transport"
)

func TestSession_CallToolRaw(t *testing.T) {
	testCases := []struct {
		description string
		reply       *mock.Reply
		expectData  string
		expectErr   error
		expectCode  int
	}{
		{description: "structured content", reply: mock.Structured(map[string]interface{}{"count": 2}), expectData: `{"count":2}`},
		{description: "json text content", reply: mock.Text(`{"users":["a"]}`), expectData: `{"users":["a"]}`},
		{description: "plain text content", reply: mock.Text("done"), expectData: `"done"`},
		{description: "raw result", reply: mock.Raw(map[string]interface{}{"ok": true}), expectData: `{"ok":true}`},
		{description: "tool error", reply: mock.ToolError("user exists"), expectErr: transport.ErrTool},
		{description: "embedded rpc error", reply: mock.RPCError(-32000, "backend exploded"), expectErr: transport.ErrProtocol},
		{description: "no data line", reply: &mock.Reply{Body: "event: message\n\n"}, expectErr: transport.ErrProtocol},
		{description: "malformed data", reply: &mock.Reply{Body: "data: {\"jsonrpc\":"}, expectErr: transport.ErrProtocol},
		{description: "server error", reply: mock.Status(http.StatusInternalServerError), expectErr: transport.ErrTransport, expectCode: http.StatusInternalServerError},
		{description: "forbidden", reply: mock.Status(http.StatusForbidden), expectErr: transport.ErrTransport, expectCode: http.StatusForbidden},
	}

	backend := mock.New()
	URL := backend.Start()
	defer backend.Close()
	session := transport.NewSession(URL)

	for _, testCase := range testCases {
		reply := testCase.reply
		backend.HandlePublic("probe", func(ctx context.Context, call *mock.Call) *mock.Reply {
			return reply
		})
		result := session.CallToolRaw(context.Background(), "probe", map[string]interface{}{"page": 1})
		if testCase.expectErr != nil {
			assert.False(t, result.Success, testCase.description)
			assert.True(t, errors.Is(result.Err, testCase.expectErr), testCase.description)
			assert.Equal(t, testCase.expectCode, result.HTTPStatus, testCase.description)
			continue
		}
		assert.True(t, result.Success, testCase.description)
		assert.Nil(t, result.Err, testCase.description)
		assert.JSONEq(t, testCase.expectData, string(result.Data), testCase.description)
	}
}

func TestSession_CallToolRaw_Arguments(t *testing.T) {
	backend := mock.New()
	URL := backend.Start()
	defer backend.Close()
	var calls []*mock.Call
	var mux sync.Mutex
	backend.HandlePublic("echo", func(ctx context.Context, call *mock.Call) *mock.Reply {
		mux.Lock()
		defer mux.Unlock()
		calls = append(calls, call)
		return mock.Structured(call.Arguments)
	})

	token := ""
	session := transport.NewSession(URL, transport.WithTokenSource(transport.TokenSourceFunc(func() string { return token })))

	result := session.CallToolRaw(context.Background(), "echo", nil)
	assert.True(t, result.Success, result.Message())
	assert.JSONEq(t, `{}`, string(result.Data))

	token = "opaque-access-token-value"
	result = session.CallToolRaw(context.Background(), "echo", map[string]interface{}{"name": "x"})
	assert.True(t, result.Success, result.Message())
	assert.JSONEq(t, `{"name":"x"}`, string(result.Data))

	assert.Len(t, calls, 2)
	assert.Empty(t, calls[0].Bearer)
	assert.Equal(t, "opaque-access-token-value", calls[1].Bearer)
}

// idRecorder captures JSON-RPC request ids on their way to the backend
type idRecorder struct {
	backend *mock.Backend
	mux     sync.Mutex
	ids     []float64
}

func (r *idRecorder) ServeHTTP(w http.ResponseWriter, request *http.Request) {
	if request.Method == http.MethodPost {
		body, _ := io.ReadAll(request.Body)
		message := struct {
			ID *float64 `json:"id"`
		}{}
		if json.Unmarshal(body, &message) == nil && message.ID != nil {
			r.mux.Lock()
			r.ids = append(r.ids, *message.ID)
			r.mux.Unlock()
		}
		request.Body = io.NopCloser(bytes.NewReader(body))
	}
	r.backend.ServeHTTP(w, request)
}

func TestSession_RequestIDsIncrease(t *testing.T) {
	backend := mock.New()
	backend.HandlePublic("ping", func(ctx context.Context, call *mock.Call) *mock.Reply {
		return mock.Text("pong")
	})
	recorder := &idRecorder{backend: backend}
	server := httptest.NewServer(recorder)
	defer server.Close()

	session := transport.NewSession(server.URL + "/mcp")
	for i := 0; i < 3; i++ {
		assert.True(t, session.CallToolRaw(context.Background(), "ping", nil).Success)
	}
	// initialize plus three calls; the initialized notification carries no id
	assert.Len(t, recorder.ids, 4)
	for i := 1; i < len(recorder.ids); i++ {
		assert.Greater(t, recorder.ids[i], recorder.ids[i-1])
	}
}

func TestSession_ExpiredSessionReconnectsOnce(t *testing.T) {
	backend := mock.New()
	URL := backend.Start()
	defer backend.Close()
	backend.HandlePublic("ping", func(ctx context.Context, call *mock.Call) *mock.Reply {
		return mock.Text("pong")
	})

	session := transport.NewSession(URL)
	assert.Nil(t, session.Connect(context.Background()))
	first := session.SessionID()

	backend.ExpireSessions()
	result := session.CallToolRaw(context.Background(), "ping", nil)
	assert.True(t, result.Success, result.Message())
	assert.EqualValues(t, 2, backend.Handshakes.Load())
	assert.NotEqual(t, first, session.SessionID())
}

func TestSession_PersistentNotFoundIsBounded(t *testing.T) {
	backend := mock.New()
	URL := backend.Start()
	defer backend.Close()
	backend.HandlePublic("gone", func(ctx context.Context, call *mock.Call) *mock.Reply {
		return mock.Status(http.StatusNotFound)
	})

	session := transport.NewSession(URL)
	result := session.CallToolRaw(context.Background(), "gone", nil)
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, transport.ErrTransport))
	assert.Equal(t, http.StatusNotFound, result.HTTPStatus)
	assert.EqualValues(t, 2, backend.Handshakes.Load())
	assert.EqualValues(t, 2, backend.ToolCalls.Load())
}

type tokenBox struct {
	value atomic.Value
}

func (b *tokenBox) AccessToken() string {
	token, _ := b.value.Load().(string)
	return token
}

func (b *tokenBox) set(token string) {
	b.value.Store(token)
}

func newProtected(t *testing.T) (*mock.Backend, string) {
	backend := mock.New()
	backend.Handle("users_list", func(ctx context.Context, call *mock.Call) *mock.Reply {
		return mock.Structured(map[string]interface{}{"caller": call.Identity})
	})
	URL := backend.Start()
	t.Cleanup(backend.Close)
	return backend, URL
}

func TestClient_CallTool(t *testing.T) {
	t.Run("refresh then retry", func(t *testing.T) {
		backend, URL := newProtected(t)
		tokens := &tokenBox{}
		tokens.set("expired-or-unknown-token")
		refreshes := 0
		logouts := 0
		client := transport.NewClient(transport.NewSession(URL, transport.WithTokenSource(tokens)),
			transport.WithRefresher(transport.RefresherFunc(func(ctx context.Context) bool {
				refreshes++
				accessToken, _, err := backend.IssueTokens("admin", "admin")
				if err != nil {
					return false
				}
				tokens.set(accessToken)
				return true
			})),
			transport.WithLogoutNotifier(transport.LogoutFunc(func(ctx context.Context) { logouts++ })))

		result := client.CallTool(context.Background(), "users_list", nil)
		assert.True(t, result.Success, result.Message())
		assert.JSONEq(t, `{"caller":"admin"}`, string(result.Data))
		assert.Equal(t, 1, refreshes)
		assert.Equal(t, 0, logouts)
		assert.EqualValues(t, 1, backend.Unauthorized.Load())
	})

	t.Run("refresh failure forces logout", func(t *testing.T) {
		backend, URL := newProtected(t)
		logouts := 0
		client := transport.NewClient(transport.NewSession(URL),
			transport.WithRefresher(transport.RefresherFunc(func(ctx context.Context) bool { return false })),
			transport.WithLogoutNotifier(transport.LogoutFunc(func(ctx context.Context) { logouts++ })))

		result := client.CallTool(context.Background(), "users_list", nil)
		assert.False(t, result.Success)
		assert.True(t, result.Unauthenticated())
		assert.True(t, errors.Is(result.Err, transport.ErrTransport))
		assert.Equal(t, 1, logouts)
		assert.EqualValues(t, 1, backend.ToolCalls.Load())
	})

	t.Run("retry is not refreshed again", func(t *testing.T) {
		backend, URL := newProtected(t)
		refreshes := 0
		client := transport.NewClient(transport.NewSession(URL),
			transport.WithRefresher(transport.RefresherFunc(func(ctx context.Context) bool {
				refreshes++
				return true
			})))

		result := client.CallTool(context.Background(), "users_list", nil)
		assert.True(t, result.Unauthenticated())
		assert.Equal(t, 1, refreshes)
		assert.EqualValues(t, 2, backend.ToolCalls.Load())
	})

	t.Run("caller stops waiting for refresh", func(t *testing.T) {
		backend, URL := newProtected(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		logouts := 0
		client := transport.NewClient(transport.NewSession(URL),
			transport.WithRefresher(transport.RefresherFunc(func(ctx context.Context) bool {
				cancel()
				<-ctx.Done()
				return false
			})),
			transport.WithLogoutNotifier(transport.LogoutFunc(func(ctx context.Context) { logouts++ })))

		result := client.CallTool(ctx, "users_list", nil)
		assert.False(t, result.Success)
		assert.False(t, result.Unauthenticated())
		assert.True(t, errors.Is(result.Err, transport.ErrTransport))
		assert.True(t, errors.Is(result.Err, context.Canceled))
		assert.Equal(t, 0, logouts)
		assert.EqualValues(t, 1, backend.ToolCalls.Load())
	})

	t.Run("no refresher", func(t *testing.T) {
		_, URL := newProtected(t)
		client := transport.NewClient(transport.NewSession(URL))
		result := client.CallTool(context.Background(), "users_list", nil)
		assert.True(t, result.Unauthenticated())
	})

	t.Run("retry after refresh keeps its own reconnect", func(t *testing.T) {
		backend, URL := newProtected(t)
		tokens := &tokenBox{}
		client := transport.NewClient(transport.NewSession(URL, transport.WithTokenSource(tokens)),
			transport.WithRefresher(transport.RefresherFunc(func(ctx context.Context) bool {
				accessToken, _, err := backend.IssueTokens("admin", "admin")
				if err != nil {
					return false
				}
				tokens.set(accessToken)
				backend.ExpireSessions()
				return true
			})))

		result := client.CallTool(context.Background(), "users_list", nil)
		assert.True(t, result.Success, result.Message())
		assert.EqualValues(t, 2, backend.Handshakes.Load())
	})
}

type listing struct {
	Caller string `json:"caller"`
}

func TestCallAs(t *testing.T) {
	backend, URL := newProtected(t)
	accessToken, _, err := backend.IssueTokens("root", "admin")
	assert.Nil(t, err)
	client := transport.NewClient(transport.NewSession(URL, transport.WithTokenSource(transport.TokenSourceFunc(func() string { return accessToken }))))

	result := transport.CallAs[listing](context.Background(), client, "users_list", nil)
	assert.True(t, result.Success)
	if assert.NotNil(t, result.Data) {
		assert.Equal(t, "root", result.Data.Caller)
	}

	failed := transport.CallAs[[]string](context.Background(), client, "users_list", nil)
	assert.False(t, failed.Success)
	assert.True(t, errors.Is(failed.Err, transport.ErrProtocol))
}
