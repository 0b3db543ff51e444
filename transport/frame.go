package transport

import (
	"bytes"
	"encoding/json"

	"github.com/viant/jsonrpc"
)

var framePrefix = []byte("data:")

// parseFrame extracts the single "data:<json>" line and decodes the JSON-RPC response it carries.
func parseFrame(body []byte) (*jsonrpc.Response, error) {
	payload, err := dataLine(body)
	if err != nil {
		return nil, err
	}
	response := &jsonrpc.Response{}
	if err := json.Unmarshal(payload, response); err != nil {
		return nil, NewProtocolError("failed to decode framed response", err)
	}
	return response, nil
}

// dataLine returns the payload of the only data line; none or more than one is a protocol error.
func dataLine(body []byte) ([]byte, error) {
	var payload []byte
	found := false
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if !bytes.HasPrefix(line, framePrefix) {
			continue
		}
		if found {
			return nil, NewProtocolError("response has more than one data line", nil)
		}
		payload = bytes.TrimPrefix(line[len(framePrefix):], []byte(" "))
		found = true
	}
	if !found {
		return nil, NewProtocolError("response has no data line", nil)
	}
	return payload, nil
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolResult struct {
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
	Content           []toolContent   `json:"content,omitempty"`
	IsError           bool            `json:"isError,omitempty"`
}

// unwrapToolResult picks tool data in order: structuredContent, first text content, raw result.
func unwrapToolResult(raw json.RawMessage) (json.RawMessage, error) {
	var result toolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return raw, nil
	}
	text, hasText := firstText(result.Content)
	if result.IsError {
		if !hasText {
			text = "tool reported an error"
		}
		return nil, newError(ErrTool, text, nil)
	}
	if len(result.StructuredContent) > 0 && !bytes.Equal(result.StructuredContent, []byte("null")) {
		return result.StructuredContent, nil
	}
	if hasText {
		if json.Valid([]byte(text)) {
			return json.RawMessage(text), nil
		}
		encoded, err := json.Marshal(text)
		if err != nil {
			return nil, NewProtocolError("failed to encode text content", err)
		}
		return encoded, nil
	}
	return raw, nil
}

func firstText(content []toolContent) (string, bool) {
	for _, item := range content {
		if item.Type == "text" {
			return item.Text, true
		}
	}
	return "", false
}
