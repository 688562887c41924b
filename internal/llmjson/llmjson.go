// Package llmjson pulls structured JSON payloads out of free-form model replies.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoBlock is returned when a reply contains no JSON payload at all.
var ErrNoBlock = errors.New("no json block found")

// ParseError reports why a reply could not be turned into a value.
type ParseError struct {
	// Block is the extracted candidate, empty when nothing was found.
	Block string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model reply: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const fence = "```"

// ExtractBlock returns the body of the first fenced code block in text,
// preferring a block tagged json. A reply without fences is accepted when it
// is itself a bare JSON object.
func ExtractBlock(text string) (string, error) {
	text = stripThinking(text)

	if block, ok := fencedBlock(text, fence+"json"); ok {
		return block, nil
	}
	if block, ok := fencedBlock(text, fence); ok {
		return block, nil
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, nil
	}

	return "", &ParseError{Err: ErrNoBlock}
}

// Decode extracts the first JSON block from text and unmarshals it into v.
// Syntax errors get one repair attempt before giving up.
func Decode(text string, v any) error {
	block, err := ExtractBlock(text)
	if err != nil {
		return err
	}

	if err := unmarshal([]byte(block), v); err != nil {
		return &ParseError{Block: block, Err: err}
	}

	return nil
}

func unmarshal(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}

	fixed, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return err
	}

	return json.Unmarshal([]byte(fixed), v)
}

func fencedBlock(text, opener string) (string, bool) {
	start := strings.Index(text, opener)
	if start == -1 {
		return "", false
	}

	rest := text[start+len(opener):]
	// The opener line may carry a language tag; the body starts on the next line.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 && !strings.Contains(rest[:nl], "{") {
		rest = rest[nl+1:]
	}

	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}

	block := strings.TrimSpace(rest[:end])
	if block == "" {
		return "", false
	}

	return block, true
}

// stripThinking drops <think>...</think> sections emitted by reasoning models.
func stripThinking(text string) string {
	for {
		start := strings.Index(text, "<think>")
		if start == -1 {
			return text
		}
		end := strings.Index(text[start:], "</think>")
		if end == -1 {
			return text[:start]
		}
		text = text[:start] + text[start+end+len("</think>"):]
	}
}
