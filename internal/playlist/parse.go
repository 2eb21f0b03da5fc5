// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// UnknownName replaces an #EXTINF line without a title.
const UnknownName = "Unknown channel"

// Entry is a channel read back from a playlist.
type Entry struct {
	ID   string
	Name string
	URL  string
}

// Parse reads name and command pairs from an extended M3U playlist. Other
// directives and blank lines are skipped, as are commands without a
// preceding #EXTINF line.
func Parse(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	name := ""
	pending := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "#EXTINF"):
			name = UnknownName
			if i := strings.IndexByte(line, ','); i >= 0 {
				if n := strings.TrimSpace(line[i+1:]); n != "" {
					name = n
				}
			}
			pending = true
		case strings.HasPrefix(line, "#"):
		case pending:
			entries = append(entries, Entry{ID: ChannelID(name), Name: name, URL: line})
			pending = false
		}
	}
	if err := sc.Err(); err != nil {
		return entries, fmt.Errorf("parse playlist: %w", err)
	}
	return entries, nil
}

// Lookup returns the first entry with the given ID.
func Lookup(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
