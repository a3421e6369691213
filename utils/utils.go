package utils

import (
	"math/rand"
	"strings"
	"time"
)

var alphabet = []rune("abcdefghijklmnopqrstuvwxyz")

func init() {
	rand.Seed(time.Now().UnixNano())
}

// RandomAlphabetString returns a lower case string of length n.
func RandomAlphabetString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// TrimmedOrEmpty trims whitespaces, "" means the input carried no content.
func TrimmedOrEmpty(s string) string {
	return strings.TrimSpace(s)
}
