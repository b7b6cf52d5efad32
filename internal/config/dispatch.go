package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/dispatch.yaml
var defaultDispatchYAML []byte

// GuestChatType seeds the chat type list of a guest session
type GuestChatType struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default bool   `yaml:"default"`
}

// Dispatch holds the tunables of webhook dispatch and upload validation.
// The embedded YAML is the baseline; DISPATCH_CONFIG may point at a file
// that replaces it.
type Dispatch struct {
	ResponseFields []string          `yaml:"response_fields"`
	Greeting       string            `yaml:"greeting"`
	DefaultTitle   string            `yaml:"default_title"`
	FileTypes      map[string]string `yaml:"file_types"` // extension -> MIME type
	StoneColors    []string          `yaml:"stone_colors"`
	GuestChatTypes []GuestChatType   `yaml:"guest_chat_types"`
}

// LoadDispatch parses the embedded defaults, or the file named by
// DISPATCH_CONFIG when set.
func LoadDispatch() (*Dispatch, error) {
	data := defaultDispatchYAML
	if path := os.Getenv("DISPATCH_CONFIG"); path != "" {
		custom, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read dispatch config %s: %w", path, err)
		}
		data = custom
	}
	return ParseDispatch(data)
}

// ParseDispatch decodes and checks a dispatch document.
func ParseDispatch(data []byte) (*Dispatch, error) {
	var d Dispatch
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal dispatch config: %w", err)
	}

	if len(d.ResponseFields) == 0 {
		return nil, fmt.Errorf("dispatch config: response_fields must not be empty")
	}
	if len(d.FileTypes) == 0 {
		return nil, fmt.Errorf("dispatch config: file_types must not be empty")
	}
	if d.DefaultTitle == "" {
		d.DefaultTitle = "New Conversation"
	}
	if len(d.StoneColors) == 0 {
		d.StoneColors = []string{"soul"}
	}

	normalized := make(map[string]string, len(d.FileTypes))
	for ext, mime := range d.FileTypes {
		normalized[strings.TrimPrefix(strings.ToLower(ext), ".")] = strings.ToLower(mime)
	}
	d.FileTypes = normalized

	return &d, nil
}

// AllowedMIMETypes returns the distinct MIME types of FileTypes, sorted.
func (d *Dispatch) AllowedMIMETypes() []string {
	seen := make(map[string]struct{}, len(d.FileTypes))
	out := make([]string, 0, len(d.FileTypes))
	for _, mime := range d.FileTypes {
		if _, ok := seen[mime]; ok {
			continue
		}
		seen[mime] = struct{}{}
		out = append(out, mime)
	}
	sort.Strings(out)
	return out
}
