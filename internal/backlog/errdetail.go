package backlog

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
)

const (
	maxErrorBodyBytes = 64 << 10
	maxDetailDepth    = 32
)

// messageKeys are the object keys whose string values read as error messages, in priority order.
var messageKeys = []string{"message", "error", "detail", "details", "description", "reason"}

// extractErrorDetail reads a failed response body and returns a one-line
// human readable detail, or "" when the body is empty or unreadable.
func extractErrorDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var data any
		if err := json.Unmarshal([]byte(trimmed), &data); err == nil {
			if messages := collectErrorMessages(data); len(messages) > 0 {
				return collapseWhitespace(strings.Join(messages, "; "))
			}
		}
	}

	return collapseWhitespace(trimmed)
}

// collectErrorMessages walks a decoded JSON error body and returns the
// distinct messages in order of first occurrence.
func collectErrorMessages(data any) []string {
	c := &messageCollector{seen: make(map[string]struct{})}
	c.visit(data, true, 0)
	return c.messages
}

type messageCollector struct {
	messages []string
	seen     map[string]struct{}
}

// visit walks node. collect is set for values reached through a message key,
// an errors field, or the document root; only those contribute bare strings.
func (c *messageCollector) visit(node any, collect bool, depth int) {
	if depth > maxDetailDepth {
		return
	}

	switch v := node.(type) {
	case string:
		if collect {
			c.add(v)
		}
	case []any:
		for _, item := range v {
			c.visit(item, collect, depth+1)
		}
	case map[string]any:
		for _, key := range messageKeys {
			if s, ok := v[key].(string); ok {
				c.add(s)
			}
		}

		if errs, ok := v["errors"]; ok {
			c.visit(errs, true, depth+1)
		}

		keys := make([]string, 0, len(v))
		for key := range v {
			if key != "errors" {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			switch v[key].(type) {
			case map[string]any, []any:
				c.visit(v[key], isMessageKey(key), depth+1)
			}
		}
	}
}

func (c *messageCollector) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if _, dup := c.seen[s]; dup {
		return
	}
	c.seen[s] = struct{}{}
	c.messages = append(c.messages, s)
}

func isMessageKey(key string) bool {
	for _, k := range messageKeys {
		if k == key {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
