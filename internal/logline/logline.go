// Package logline turns Terraform run log output into human-readable lines.
//
// Terraform writes structured logs as one JSON object per line. Those carry
// the readable text in their "@message" member; everything else in a log
// (banners, plain output) is already readable and passes through untouched.
package logline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Emitter receives decoded log lines, without the trailing newline.
type Emitter func(line string)

// Decode converts a single log line. The second result is false when the
// line should be suppressed: a JSON object that carries no "@message".
func Decode(line string) (string, bool) {
	if !strings.HasPrefix(line, "{") {
		return line, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return line, true
	}

	raw, ok := obj["@message"]
	if !ok {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		// @message is present but not a string
		return "", false
	}
	return msg, true
}

// Decoder splits chunks of log text into lines and emits them.
type Decoder struct {
	// Raw emits every line exactly as received.
	Raw bool
}

// Write splits chunk on line breaks and emits each line. Unless Raw is set,
// lines are passed through Decode and empty results are dropped.
func (d Decoder) Write(chunk string, emit Emitter) {
	for _, line := range splitLines(chunk) {
		if d.Raw {
			emit(line)
			continue
		}
		msg, ok := Decode(line)
		if !ok || msg == "" {
			continue
		}
		emit(msg)
	}
}

// Prefixed wraps emit so every line reads "[prefix] line".
func Prefixed(prefix string, emit Emitter) Emitter {
	return func(line string) {
		emit(fmt.Sprintf("[%s] %s", prefix, line))
	}
}

// splitLines splits on \n, trimming a trailing \r from each line. A final
// line break does not produce an empty trailing line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
