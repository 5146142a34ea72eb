package library

import (
	"fmt"
	"path/filepath"
	"unicode"
)

// NormalizeTitle gives scanned titles a uniform two-digit track prefix so
// they sort correctly. Titles starting with a single-digit track number are
// zero padded, two-digit ones pass through, everything else gets a prefix
// generated from the 1-based scan index.
func NormalizeTitle(title string, index int) string {
	const (
		stateInit = iota
		stateNumber
		stateOther
	)
	state := stateInit
	digits := 0

	for _, c := range title {
		if unicode.IsDigit(c) {
			state = stateNumber
			digits++
		} else if c == ' ' {
			if state == stateNumber {
				break
			}
			state = stateOther
		} else {
			// a number running into a letter counts as a word, not a track number
			state = stateOther
		}
		if state == stateOther {
			break
		}
	}

	switch {
	case state == stateInit:
		return "<no title>"
	case state == stateNumber && digits == 1:
		return "0" + title
	case state == stateNumber && digits == 2:
		return title
	default:
		return fmt.Sprintf("%02d %s", index, title)
	}
}

// TitleFromPath derives a title for a song played directly by path.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		return "<no filename>"
	}
	return name
}
