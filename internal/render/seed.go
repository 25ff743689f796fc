package render

import (
	"fmt"
	"unicode/utf16"
)

// Seed derives the perturbation seed from the exam ID, question number, and
// question text. The hash runs over UTF-16 code units with 32-bit wrapping so
// the same inputs always yield the same seed, including for text containing
// mathematical symbols outside the ASCII range.
func Seed(examID string, questionNumber int, text string) int64 {
	return hashString(fmt.Sprintf("%s-%d-%s", examID, questionNumber, text))
}

func hashString(s string) int64 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(u)
	}
	if h < 0 {
		return -int64(h)
	}
	return int64(h)
}
