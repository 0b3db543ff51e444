package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	"golang.org/x/sync/singleflight"
)

const (
	// SessionHeader carries the backend-issued session identifier
	SessionHeader = "Mcp-Session-Id"
	// DefaultTimeout bounds every request
	DefaultTimeout = 30 * time.Second

	acceptStream = "text/event-stream"
	acceptPost   = "application/json, text/event-stream"
)

// Session owns the backend session: opaque id, connectivity flag and the wire exchange.
// Session is safe for concurrent use.
type Session struct {
	rawURL          string
	baseURL         *url.URL
	urlErr          error
	httpClient      *http.Client
	timeout         time.Duration
	tokens          TokenSource
	logger          *slog.Logger
	info            schema.Implementation
	capabilities    schema.ClientCapabilities
	protocolVersion string

	mux       sync.RWMutex
	sessionID string
	connected bool

	connecting singleflight.Group
	sequence   atomic.Uint64
}

// NewSession creates a disconnected session for baseURL. The URL is validated on Connect.
func NewSession(baseURL string, options ...Option) *Session {
	ret := &Session{
		rawURL:          baseURL,
		timeout:         DefaultTimeout,
		logger:          slog.Default(),
		info:            *schema.NewImplementation("mcpadmin", "0.1"),
		protocolVersion: schema.LatestProtocolVersion,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{}
	}
	ret.baseURL, ret.urlErr = validateBaseURL(baseURL)
	return ret
}

// BaseURL returns the configured endpoint
func (s *Session) BaseURL() string {
	return s.rawURL
}

// Timeout returns the per-request timeout
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// SessionID returns the current session id, empty when disconnected
func (s *Session) SessionID() string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.sessionID
}

// Connected reports whether a full handshake succeeded and was not reset since
func (s *Session) Connected() bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.connected
}

func (s *Session) current() (string, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.sessionID, s.connected
}

func (s *Session) commit(sessionID string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.sessionID = sessionID
	s.connected = true
}

// Disconnect drops the session locally; it never touches the network and is idempotent.
func (s *Session) Disconnect() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.sessionID = ""
	s.connected = false
}

// resetIfCurrent disconnects only if sessionID is still the active one,
// so a stale failure cannot tear down a session another caller just opened.
func (s *Session) resetIfCurrent(sessionID string) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.sessionID != sessionID {
		return false
	}
	s.sessionID = ""
	s.connected = false
	return true
}

// Connect performs the handshake: session GET, initialize, initialized notification.
// State is committed only when every step succeeds. Concurrent callers share one handshake.
func (s *Session) Connect(ctx context.Context) error {
	if s.urlErr != nil {
		s.Disconnect()
		return s.urlErr
	}
	ch := s.connecting.DoChan("connect", func() (interface{}, error) {
		return nil, s.handshake(context.WithoutCancel(ctx))
	})
	select {
	case ret := <-ch:
		return ret.Err
	case <-ctx.Done():
		return NewTransportError("connect aborted", 0, ctx.Err())
	}
}

func (s *Session) ensureConnected(ctx context.Context) (string, error) {
	if sessionID, ok := s.current(); ok {
		return sessionID, nil
	}
	if err := s.Connect(ctx); err != nil {
		return "", err
	}
	if sessionID, ok := s.current(); ok {
		return sessionID, nil
	}
	return "", NewProtocolError("session was reset while connecting", nil)
}

func (s *Session) handshake(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewProtocolError(fmt.Sprintf("handshake failed: %v", r), nil)
		}
		if err != nil {
			s.Disconnect()
			s.logger.Debug("handshake failed", "url", s.rawURL, "error", err)
		}
	}()
	sessionID, err := s.open(ctx)
	if err != nil {
		return err
	}
	if err = s.initialize(ctx, sessionID); err != nil {
		return err
	}
	if err = s.notifyInitialized(ctx, sessionID); err != nil {
		return err
	}
	s.commit(sessionID)
	s.logger.Debug("session established", "url", s.rawURL)
	return nil
}

func (s *Session) open(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL.String(), nil)
	if err != nil {
		return "", NewConfigurationError("invalid handshake request: %v", err)
	}
	request.Header.Set("Accept", acceptStream)
	s.authorize(request)
	response, err := s.httpClient.Do(request)
	if err != nil {
		return "", NewTransportError("handshake request failed", 0, err)
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", NewTransportError("handshake rejected", response.StatusCode, nil)
	}
	sessionID := response.Header.Get(SessionHeader)
	if sessionID == "" {
		return "", NewProtocolError("handshake response is missing "+SessionHeader+" header", nil)
	}
	return sessionID, nil
}

func (s *Session) initialize(ctx context.Context, sessionID string) error {
	params := &schema.InitializeRequestParams{
		Capabilities:    s.capabilities,
		ClientInfo:      s.info,
		ProtocolVersion: s.protocolVersion,
	}
	request, err := s.newRequest(schema.MethodInitialize, params)
	if err != nil {
		return err
	}
	response, err := s.exchange(ctx, sessionID, request)
	if err != nil {
		return err
	}
	if response.Error != nil {
		return NewProtocolError("initialize rejected: "+response.Error.Message, nil)
	}
	var result schema.InitializeResult
	if err = json.Unmarshal(response.Result, &result); err != nil {
		return NewProtocolError("failed to unmarshal InitializeResult", err)
	}
	s.logger.Debug("initialized", "server", result.ServerInfo.Name)
	return nil
}

func (s *Session) notifyInitialized(ctx context.Context, sessionID string) error {
	notification := &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: schema.MethodNotificationInitialized}
	status, _, err := s.post(ctx, sessionID, notification)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return NewTransportError("initialized notification rejected", status, nil)
	}
	return nil
}

func (s *Session) newRequest(method string, params interface{}) (*jsonrpc.Request, error) {
	request, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return nil, NewProtocolError("failed to encode "+method+" request", err)
	}
	request.Jsonrpc = jsonrpc.Version
	request.Id = s.sequence.Add(1)
	return request, nil
}

// exchange posts a request and decodes the framed reply; non-2xx statuses become transport errors.
func (s *Session) exchange(ctx context.Context, sessionID string, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	status, body, err := s.post(ctx, sessionID, request)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, NewTransportError(request.Method+" failed: "+statusMessage(status, body), status, nil)
	}
	return parseFrame(body)
}

func (s *Session) post(ctx context.Context, sessionID string, payload interface{}) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, NewProtocolError("failed to encode request", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL.String(), bytes.NewReader(data))
	if err != nil {
		return 0, nil, NewConfigurationError("invalid request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", acceptPost)
	if sessionID != "" {
		request.Header.Set(SessionHeader, sessionID)
	}
	s.authorize(request)
	response, err := s.httpClient.Do(request)
	if err != nil {
		return 0, nil, NewTransportError("request failed", 0, err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, nil, NewTransportError("failed to read response", response.StatusCode, err)
	}
	return response.StatusCode, body, nil
}

func (s *Session) authorize(request *http.Request) {
	if s.tokens == nil {
		return
	}
	if token := s.tokens.AccessToken(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
}

func statusMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return http.StatusText(status)
	}
	return text
}

func validateBaseURL(raw string) (*url.URL, error) {
	URL, err := url.Parse(raw)
	if err != nil || URL.Host == "" {
		return nil, NewConfigurationError("invalid base URL %q", raw)
	}
	switch strings.ToLower(URL.Scheme) {
	case "https":
		return URL, nil
	case "http":
		if isLoopback(URL.Hostname()) {
			return URL, nil
		}
		return nil, NewConfigurationError("refusing plain http to non-loopback host %q, use https", URL.Hostname())
	default:
		return nil, NewConfigurationError("unsupported URL scheme %q", URL.Scheme)
	}
}

func isLoopback(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
