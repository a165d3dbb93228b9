package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits config files to prevent memory exhaustion.
const MaxInputSize = 1 << 20

var errEmptyInput = errors.New("empty config file")

// unmarshalStrict decodes YAML and rejects unknown fields, so a typo in
// a key fails loudly instead of silently keeping the default.
func unmarshalStrict(data []byte, v any) error {
	if len(data) == 0 {
		return errEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("input exceeds maximum size: %d bytes (max %d)", len(data), MaxInputSize)
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}

// Marshal renders the config as YAML. The secret is masked unless
// withSecret is set.
func (c *Config) Marshal(withSecret bool) ([]byte, error) {
	out := *c
	if !withSecret && out.App.Secret != "" {
		out.App.Secret = "********"
	}
	return yaml.Marshal(&out)
}
