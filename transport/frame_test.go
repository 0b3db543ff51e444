package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFrame(t *testing.T) {
	testCases := []struct {
		description string
		body        string
		expectErr   bool
		expectID    bool
	}{
		{description: "data with space", body: "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{}}\n\n", expectID: true},
		{description: "data without space", body: "data:{\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{}}", expectID: true},
		{description: "crlf", body: "event: message\r\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{}}\r\n\r\n", expectID: true},
		{description: "no data line", body: "event: message\n\n", expectErr: true},
		{description: "bad json", body: "data: {oops", expectErr: true},
		{description: "two data lines", body: "data: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{}}\ndata: {\"jsonrpc\":\"2.0\",\"id\":2,\"result\":{}}\n\n", expectErr: true},
		{description: "plain json", body: "{\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{}}", expectErr: true},
	}
	for _, testCase := range testCases {
		response, err := parseFrame([]byte(testCase.body))
		if testCase.expectErr {
			assert.True(t, errors.Is(err, ErrProtocol), testCase.description)
			continue
		}
		if !assert.Nil(t, err, testCase.description) {
			continue
		}
		assert.NotNil(t, response.Result, testCase.description)
	}
}

func TestUnwrapToolResult(t *testing.T) {
	testCases := []struct {
		description string
		raw         string
		expect      string
		expectErr   error
	}{
		{
			description: "structured content wins",
			raw:         `{"structuredContent":{"a":1},"content":[{"type":"text","text":"{\"a\":2}"}]}`,
			expect:      `{"a":1}`,
		},
		{
			description: "null structured content falls back to text",
			raw:         `{"structuredContent":null,"content":[{"type":"text","text":"{\"a\":2}"}]}`,
			expect:      `{"a":2}`,
		},
		{
			description: "first text content",
			raw:         `{"content":[{"type":"image","text":"x"},{"type":"text","text":"[1,2]"},{"type":"text","text":"3"}]}`,
			expect:      `[1,2]`,
		},
		{
			description: "non json text is encoded as string",
			raw:         `{"content":[{"type":"text","text":"hello world"}]}`,
			expect:      `"hello world"`,
		},
		{
			description: "raw result",
			raw:         `{"users":[]}`,
			expect:      `{"users":[]}`,
		},
		{
			description: "non object result",
			raw:         `42`,
			expect:      `42`,
		},
		{
			description: "tool error",
			raw:         `{"isError":true,"content":[{"type":"text","text":"denied"}]}`,
			expectErr:   ErrTool,
		},
	}
	for _, testCase := range testCases {
		data, err := unwrapToolResult([]byte(testCase.raw))
		if testCase.expectErr != nil {
			assert.True(t, errors.Is(err, testCase.expectErr), testCase.description)
			continue
		}
		assert.Nil(t, err, testCase.description)
		assert.JSONEq(t, testCase.expect, string(data), testCase.description)
	}
}

func TestValidateBaseURL(t *testing.T) {
	testCases := []struct {
		description string
		URL         string
		valid       bool
	}{
		{description: "https remote", URL: "https://admin.example.com/mcp", valid: true},
		{description: "http localhost", URL: "http://localhost:8080/mcp", valid: true},
		{description: "http ipv4 loopback", URL: "http://127.0.0.1:8080/mcp", valid: true},
		{description: "http ipv6 loopback", URL: "http://[::1]:8080/mcp", valid: true},
		{description: "http remote", URL: "http://admin.example.com/mcp"},
		{description: "http private address", URL: "http://10.0.0.5/mcp"},
		{description: "other scheme", URL: "ftp://localhost/mcp"},
		{description: "no host", URL: "/mcp"},
	}
	for _, testCase := range testCases {
		_, err := validateBaseURL(testCase.URL)
		if testCase.valid {
			assert.Nil(t, err, testCase.description)
			continue
		}
		assert.True(t, errors.Is(err, ErrConfiguration), testCase.description)
	}
}

func TestError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransportError("request failed", 503, cause)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrProtocol))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")

	result := failure(err)
	assert.False(t, result.Success)
	assert.Equal(t, 503, result.HTTPStatus)
	assert.Contains(t, result.Message(), "request failed")
	assert.False(t, result.Unauthenticated())
}
