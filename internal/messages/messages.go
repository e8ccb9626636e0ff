// Package messages loads the bot's user-facing message catalog from YAML and
// renders {variable} placeholders.
package messages

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is an immutable message catalog. Paths are dot-separated keys into
// the YAML tree, e.g. "suggestions.embed.title".
type Catalog struct {
	root map[string]any
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	return &Catalog{root: root}, nil
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	slog.Info("message catalog loaded", "path", path, "top_level_keys", len(c.root))
	return c, nil
}

// Get returns the message at the given path with {key} placeholders replaced
// from vars. Missing paths return a bracketed marker so broken references are
// visible in chat rather than silent.
func (c *Catalog) Get(path string, vars map[string]string) string {
	node := any(c.root)
	for _, key := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			slog.Warn("message path not found", "path", path)
			return "[missing message: " + path + "]"
		}
		node, ok = m[key]
		if !ok {
			slog.Warn("message path not found", "path", path)
			return "[missing message: " + path + "]"
		}
	}

	msg, ok := node.(string)
	if !ok {
		slog.Warn("message is not a string", "path", path)
		return "[missing message: " + path + "]"
	}

	for key, value := range vars {
		msg = strings.ReplaceAll(msg, "{"+key+"}", value)
	}
	return msg
}

// Has reports whether a string message exists at the given path.
func (c *Catalog) Has(path string) bool {
	node := any(c.root)
	for _, key := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return false
		}
		node, ok = m[key]
		if !ok {
			return false
		}
	}
	_, ok := node.(string)
	return ok
}
