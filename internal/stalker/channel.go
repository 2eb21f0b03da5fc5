// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// DefaultMaxPageItems is assumed when a page omits max_page_items.
const DefaultMaxPageItems = 14

// Channel is one live channel record. Name and Cmd are the fields the
// playlist needs; every other server field is kept verbatim and written back
// on serialisation.
type Channel struct {
	Name string
	Cmd  string

	raw map[string]json.RawMessage
}

// NewChannel builds a channel with no extra fields.
func NewChannel(name, cmd string) Channel {
	return Channel{Name: name, Cmd: cmd}
}

// Field returns the raw JSON of a server field.
func (c Channel) Field(key string) (json.RawMessage, bool) {
	v, ok := c.raw[key]
	return v, ok
}

// Extra returns a copy of the server fields other than name and cmd.
func (c Channel) Extra() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(c.raw))
	for k, v := range c.raw {
		if k == "name" || k == "cmd" {
			continue
		}
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Equal reports whether two channels carry the same fields.
func (c Channel) Equal(o Channel) bool {
	if c.Name != o.Name || c.Cmd != o.Cmd {
		return false
	}
	a, b := c.Extra(), o.Extra()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !bytes.Equal(v, w) {
			return false
		}
	}
	return true
}

func (c *Channel) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return err
		}
		raw[k] = buf.Bytes()
	}

	name, err := scalarString(raw["name"])
	if err != nil {
		return fmt.Errorf("channel name: %w", err)
	}
	cmd, err := scalarString(raw["cmd"])
	if err != nil {
		return fmt.Errorf("channel cmd: %w", err)
	}

	*c = Channel{Name: name, Cmd: cmd, raw: raw}
	return nil
}

func (c Channel) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.raw)+2)
	for k, v := range c.raw {
		out[k] = v
	}
	name, err := json.Marshal(c.Name)
	if err != nil {
		return nil, err
	}
	cmd, err := json.Marshal(c.Cmd)
	if err != nil {
		return nil, err
	}
	out["name"] = name
	out["cmd"] = cmd
	return json.Marshal(out)
}

// scalarString accepts a JSON string, number, boolean or null.
func scalarString(v json.RawMessage) (string, error) {
	if len(v) == 0 || string(v) == "null" {
		return "", nil
	}
	switch v[0] {
	case '"':
		var s string
		err := json.Unmarshal(v, &s)
		return s, err
	case '{', '[':
		return "", fmt.Errorf("unexpected JSON %s", v)
	default:
		return string(v), nil
	}
}

// Catalog is the ordered channel list assembled across all pages.
type Catalog []Channel

// Page is one get_ordered_list response.
type Page struct {
	Items        []Channel
	MaxPageItems int
	TotalItems   int
}

// Profile is the opaque account/device attribute set from get_profile.
type Profile map[string]any

// flexInt decodes integers that legacy portals send as numbers or strings.
// Integral floats such as 14.0 are accepted.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		s = unq
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return fmt.Errorf("not an integer: %s", data)
	}
	*f = flexInt(v)
	return nil
}

// lenientInt is a flexInt for informational fields: values that do not
// parse decode as 0 instead of failing the whole payload.
type lenientInt int

func (l *lenientInt) UnmarshalJSON(data []byte) error {
	var f flexInt
	if err := f.UnmarshalJSON(data); err != nil {
		*l = 0
		return nil
	}
	*l = lenientInt(f)
	return nil
}
