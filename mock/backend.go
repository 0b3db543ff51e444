package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpadmin/internal/collection"
)

const sessionHeader = "Mcp-Session-Id"

// Built-in public tool names
const (
	ToolSetupStatus = "auth_setup_status"
	ToolLogin       = "auth_login"
	ToolRefresh     = "auth_refresh"
	ToolRevoke      = "auth_revoke"
)

type tool struct {
	handler ToolHandler
	public  bool
}

type toolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// Backend is a mock admin backend. Configure fields before Start.
type Backend struct {
	Issuer    string
	Secret    []byte
	Admin     string
	Password  string
	Role      string
	AccessTTL time.Duration
	HasAdmin  bool

	// OmitSessionHeader makes the handshake answer without a session id
	OmitSessionHeader bool
	// InitializeError makes initialize answer with an embedded error
	InitializeError bool
	// RefreshGate, when set, holds every refresh until it is closed or receives
	RefreshGate chan struct{}
	// OnRefresh is invoked when a refresh call arrives, before the gate
	OnRefresh func()

	Handshakes    atomic.Int64
	Initializes   atomic.Int64
	Notifications atomic.Int64
	ToolCalls     atomic.Int64
	Refreshes     atomic.Int64
	Revocations   atomic.Int64
	Unauthorized  atomic.Int64

	epoch         atomic.Int64
	sessions      *collection.SyncMap[string, time.Time]
	refreshTokens *collection.SyncMap[string, grant]
	revoked       *collection.SyncMap[string, bool]
	mux           sync.RWMutex
	tools         map[string]*tool
	server        *httptest.Server
}

// Handle registers a bearer protected tool
func (b *Backend) Handle(name string, handler ToolHandler) {
	b.register(name, handler, false)
}

// HandlePublic registers a tool callable without a bearer, replacing built-ins of the same name
func (b *Backend) HandlePublic(name string, handler ToolHandler) {
	b.register(name, handler, true)
}

func (b *Backend) register(name string, handler ToolHandler, public bool) {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.tools[name] = &tool{handler: handler, public: public}
}

func (b *Backend) lookup(name string) (*tool, bool) {
	b.mux.RLock()
	defer b.mux.RUnlock()
	ret, ok := b.tools[name]
	return ret, ok
}

// Start serves the backend on a loopback listener and returns its URL
func (b *Backend) Start() string {
	b.server = httptest.NewServer(b)
	return b.URL()
}

// URL returns the endpoint URL
func (b *Backend) URL() string {
	if b.server == nil {
		return ""
	}
	return b.server.URL + "/mcp"
}

// Close stops the server
func (b *Backend) Close() {
	if b.server != nil {
		b.server.Close()
	}
}

// ExpireSessions forgets every session; subsequent posts get 404
func (b *Backend) ExpireSessions() {
	b.sessions.Range(func(key string, _ time.Time) bool {
		b.sessions.Delete(key)
		return true
	})
}

// InvalidateAccessTokens rejects every access token issued so far with 401
func (b *Backend) InvalidateAccessTokens() {
	b.epoch.Add(1)
}

// SessionCount returns the number of live sessions
func (b *Backend) SessionCount() int {
	return b.sessions.Len()
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		b.handshake(w)
	case http.MethodPost:
		b.message(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) handshake(w http.ResponseWriter) {
	b.Handshakes.Add(1)
	if !b.OmitSessionHeader {
		sessionID := uuid.NewString()
		b.sessions.Put(sessionID, time.Now())
		w.Header().Set(sessionHeader, sessionID)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
}

func (b *Backend) message(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.sessions.Get(r.Header.Get(sessionHeader)); !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	request := &jsonrpc.Request{}
	if err = json.Unmarshal(body, request); err != nil {
		http.Error(w, "Invalid JSON-RPC message", http.StatusBadRequest)
		return
	}
	switch request.Method {
	case schema.MethodNotificationInitialized:
		b.Notifications.Add(1)
		w.WriteHeader(http.StatusAccepted)
	case schema.MethodInitialize:
		b.Initializes.Add(1)
		if b.InitializeError {
			b.write(w, request, nil, jsonrpc.NewInvalidRequest("unsupported protocol version", nil))
			return
		}
		b.write(w, request, map[string]interface{}{
			"protocolVersion": schema.LatestProtocolVersion,
			"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
			"serverInfo":      map[string]interface{}{"name": "mock-admin", "version": "0.1"},
		}, nil)
	case schema.MethodToolsCall:
		b.callTool(w, r, request)
	default:
		b.write(w, request, nil, jsonrpc.NewMethodNotFound(fmt.Sprintf("method %s not found", request.Method), nil))
	}
}

func (b *Backend) callTool(w http.ResponseWriter, r *http.Request, request *jsonrpc.Request) {
	b.ToolCalls.Add(1)
	params := &toolCallParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		b.write(w, request, nil, jsonrpc.NewError(jsonrpc.InvalidParams, err.Error(), nil))
		return
	}
	aTool, ok := b.lookup(params.Name)
	if !ok {
		b.write(w, request, nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Unknown tool:"+params.Name, nil))
		return
	}
	call := &Call{Name: params.Name, Arguments: params.Arguments, Bearer: bearer(r)}
	if call.Arguments == nil {
		call.Arguments = map[string]interface{}{}
	}
	if !aTool.public {
		identity, err := b.verify(call.Bearer)
		if err != nil {
			b.Unauthorized.Add(1)
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm=%q, error="invalid_token"`, b.Issuer))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		call.Identity = identity
	}
	b.reply(w, request, aTool.handler(r.Context(), call))
}

func (b *Backend) reply(w http.ResponseWriter, request *jsonrpc.Request, reply *Reply) {
	switch {
	case reply == nil:
		b.write(w, request, map[string]interface{}{"content": []interface{}{}}, nil)
	case reply.Status != 0:
		http.Error(w, http.StatusText(reply.Status), reply.Status)
	case reply.Body != "":
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, reply.Body)
	default:
		b.write(w, request, reply.Result, reply.Error)
	}
}

func (b *Backend) write(w http.ResponseWriter, request *jsonrpc.Request, result interface{}, rpcError *jsonrpc.Error) {
	response := &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: request.Id, Error: rpcError}
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			http.Error(w, "Server error", http.StatusInternalServerError)
			return
		}
		response.Result = data
	}
	payload, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	_, _ = fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
}

func bearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func (b *Backend) setupStatus(_ context.Context, _ *Call) *Reply {
	return Structured(map[string]interface{}{"has_admin": b.HasAdmin})
}

func (b *Backend) login(_ context.Context, call *Call) *Reply {
	if call.String("username") != b.Admin || call.String("password") != b.Password {
		return ToolError("invalid credentials")
	}
	return b.grant(grant{identity: b.Admin, role: b.Role})
}

func (b *Backend) refresh(ctx context.Context, call *Call) *Reply {
	b.Refreshes.Add(1)
	if b.OnRefresh != nil {
		b.OnRefresh()
	}
	if b.RefreshGate != nil {
		select {
		case <-b.RefreshGate:
		case <-ctx.Done():
			return Status(http.StatusServiceUnavailable)
		}
	}
	previous, ok := b.refreshTokens.Take(call.String("refresh_token"))
	if !ok {
		return ToolError("invalid refresh token")
	}
	return b.grant(previous)
}

func (b *Backend) revoke(_ context.Context, call *Call) *Reply {
	b.Revocations.Add(1)
	token := call.String("token")
	if call.String("token_type_hint") == "refresh_token" {
		b.refreshTokens.Delete(token)
	} else {
		b.revoked.Put(token, true)
	}
	return Structured(map[string]interface{}{"revoked": true})
}

func (b *Backend) grant(aGrant grant) *Reply {
	accessToken, refreshToken, err := b.IssueTokens(aGrant.identity, aGrant.role)
	if err != nil {
		return &Reply{Error: jsonrpc.NewInternalError(err.Error(), nil)}
	}
	return Structured(map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"identity":      aGrant.identity,
		"role":          aGrant.role,
	})
}

// New creates a backend with one admin account admin/secret
func New() *Backend {
	ret := &Backend{
		Issuer:        "mock-admin",
		Secret:        []byte("mock-admin-signing-secret"),
		Admin:         "admin",
		Password:      "secret",
		Role:          "admin",
		AccessTTL:     time.Hour,
		HasAdmin:      true,
		sessions:      collection.NewSyncMap[string, time.Time](),
		refreshTokens: collection.NewSyncMap[string, grant](),
		revoked:       collection.NewSyncMap[string, bool](),
		tools:         map[string]*tool{},
	}
	ret.HandlePublic(ToolSetupStatus, ret.setupStatus)
	ret.HandlePublic(ToolLogin, ret.login)
	ret.HandlePublic(ToolRefresh, ret.refresh)
	ret.HandlePublic(ToolRevoke, ret.revoke)
	return ret
}
