// Package hash derives the short stable identifier an article keeps for
// life. The algorithm must keep producing the same output for the same
// title across runs, since identifiers written by earlier deployments are
// the dedup keys of the store.
package hash

import "unicode/utf16"

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the fixed size of every identifier.
const Length = 6

// Article folds the title into a 32-bit accumulator (acc = acc*31 + code,
// two's-complement wraparound, UTF-16 code units) and then derives six
// alphabet indexes from it, mutating the accumulator by the output
// position between characters. Pure function; collisions between
// different titles are possible and handled by callers.
func Article(title string) string {
	var acc int32
	for _, code := range utf16.Encode([]rune(title)) {
		acc = acc*31 + int32(code)
	}

	out := make([]byte, Length)
	for i := 0; i < Length; i++ {
		idx := acc % int32(len(alphabet))
		if idx < 0 {
			idx = -idx
		}
		out[i] = alphabet[idx]
		acc = acc*31 + int32(i)
	}

	return string(out)
}
