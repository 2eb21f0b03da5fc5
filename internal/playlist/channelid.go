// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const channelIDPrefix = "channel_"

func isCombiningDiacritic(r rune) bool { return r >= 0x0300 && r <= 0x036f }

// ChannelID derives a stable identifier from a display name: accents are
// stripped, runs of anything other than ASCII letters and digits become a
// single underscore and the result is lower-cased.
//
//	ChannelID("RTP 1 Açores") == "channel_rtp_1_acores"
func ChannelID(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isCombiningDiacritic)))
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	b.Grow(len(channelIDPrefix) + len(stripped))
	b.WriteString(channelIDPrefix)
	underscore := false
	for _, r := range stripped {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			underscore = false
		default:
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	return b.String()
}
