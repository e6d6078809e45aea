package types

import "encoding/json"

// CheckConfig is the typed envelope for the opaque per-check config column.
// Known keys decode into fields; anything else lands in Extra so new check
// types can carry settings without a schema change.
type CheckConfig struct {
	TimeoutSeconds int    `json:"timeout,omitempty"`
	ExpectedStatus int    `json:"expected_status,omitempty"`
	ContentHash    string `json:"content_hash,omitempty"`

	Extra map[string]any `json:"-"`
}

func (c *CheckConfig) UnmarshalJSON(data []byte) error {
	type plain CheckConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "timeout")
	delete(raw, "expected_status")
	delete(raw, "content_hash")

	*c = CheckConfig(p)
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

func (c CheckConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.TimeoutSeconds != 0 {
		out["timeout"] = c.TimeoutSeconds
	}
	if c.ExpectedStatus != 0 {
		out["expected_status"] = c.ExpectedStatus
	}
	if c.ContentHash != "" {
		out["content_hash"] = c.ContentHash
	}
	return json.Marshal(out)
}

// DecodeCheckConfig parses the stored config column. A nil or empty column
// yields a zero config.
func DecodeCheckConfig(raw []byte) (CheckConfig, error) {
	var cfg CheckConfig
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return CheckConfig{}, err
	}
	return cfg, nil
}
