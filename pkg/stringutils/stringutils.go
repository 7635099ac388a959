package stringutils

import "strings"

func LeftJust(text string, filler string, size int) string {
	repeat := size - len(text)
	if repeat < 0 {
		repeat = 0
	}
	return text + strings.Repeat(filler, repeat)
}
