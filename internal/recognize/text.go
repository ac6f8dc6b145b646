package recognize

import (
	"strings"
)

// RenderText joins tokens with single spaces, collapses the "@@ " subword
// continuation marker, then strips spaces that sit between a
// non-alphanumeric character and a non-alphanumeric-or-end boundary.
//
// Pure: RenderText(tokens) == RenderText(tokens) always (spec §8 property 5).
func RenderText(tokens []string) string {
	joined := strings.Join(tokens, " ")
	joined = strings.ReplaceAll(joined, "@@ ", "")
	return collapseCJKSpaces(joined)
}

// collapseCJKSpaces removes a space that immediately follows a non-ASCII-
// alphanumeric rune when the rune after the space (if any) is itself not
// ASCII-alphanumeric — spec §4.E's `([^a-zA-Z0-9]) (?![a-zA-Z0-9])` regex.
// Go's RE2 engine has no lookahead, so this walks the string once,
// left-to-right, exactly mirroring re.sub's single non-overlapping pass:
// a matched (char, space) pair advances the cursor by two runes, consuming
// the space; anything else advances by one.
func collapseCJKSpaces(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isASCIIAlnum(r) && i+1 < len(runes) && runes[i+1] == ' ' {
			nextIsAlnum := i+2 < len(runes) && isASCIIAlnum(runes[i+2])
			if !nextIsAlnum {
				out = append(out, r)
				i++ // also consume the space
				continue
			}
		}
		out = append(out, r)
	}
	return string(out)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// StripTrailingPunc removes any trailing characters found in cutset from
// text, per client config `trash_punc` (spec §6). The mic client applies it
// to the final transcript before handing it to the OutputDriver.
func StripTrailingPunc(text string, cutset string) string {
	if cutset == "" {
		return text
	}
	return strings.TrimRight(text, cutset)
}
