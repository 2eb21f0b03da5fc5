// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playlist renders and reads extended M3U playlists.
package playlist

import (
	"bytes"
	"io"
)

// Header is the first line of every playlist.
const Header = "#EXTM3U"

// Item is one playlist entry. URL is the channel launch command and is
// written verbatim.
type Item struct {
	Name string
	URL  string
}

// Render returns the playlist for items. Names and commands are not escaped;
// the output depends only on items.
func Render(items []Item) []byte {
	var buf bytes.Buffer
	buf.Grow(len(Header) + 1 + len(items)*64)
	buf.WriteString(Header + "\n")
	for _, it := range items {
		buf.WriteString("#EXTINF:-1,")
		buf.WriteString(it.Name)
		buf.WriteByte('\n')
		buf.WriteString(it.URL)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func WriteM3U(w io.Writer, items []Item) error {
	_, err := w.Write(Render(items))
	return err
}
