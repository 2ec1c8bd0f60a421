package testutil

import (
	"encoding/json"
	"strings"
	"sync"
)

// LogSink is an io.Writer collecting zerolog JSON lines.
type LogSink struct {
	mu    sync.Mutex
	lines []map[string]interface{}
}

func (s *LogSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			entry["raw"] = line
		}
		s.lines = append(s.lines, entry)
	}
	return len(p), nil
}

// Messages returns the "message" field of every captured line.
func (s *LogSink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.lines))
	for _, l := range s.lines {
		if m, ok := l["message"].(string); ok {
			out = append(out, m)
		}
	}
	return out
}

// Contains reports whether any captured message equals msg.
func (s *LogSink) Contains(msg string) bool {
	for _, m := range s.Messages() {
		if m == msg {
			return true
		}
	}
	return false
}

// Entries returns a copy of every captured line.
func (s *LogSink) Entries() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]interface{}, len(s.lines))
	copy(out, s.lines)
	return out
}

// Last returns the most recent line whose message equals msg, or nil.
func (s *LogSink) Last(msg string) map[string]interface{} {
	entries := s.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i]["message"] == msg {
			return entries[i]
		}
	}
	return nil
}
