// Package sample produces realistic one-time-code messages for the demo
// inbox and for tests.
package sample

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

var templates = []string{
	"Your verification code is %s. Do not share it with anyone.",
	"%s is your login code. It expires in 10 minutes.",
	"[Acme] Use code %s to confirm your sign in. Ref 77.",
	"G-%s is your Google verification code.",
	"Code: %s\nIf you did not request this, ignore this message.",
}

// Code returns n random digits.
func Code(r *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + r.IntN(10)))
	}
	return b.String()
}

// SMS wraps code in one of the message templates.
func SMS(r *rand.Rand, code string) string {
	return fmt.Sprintf(templates[r.IntN(len(templates))], code)
}

// Templates returns every message template filled with code.
func Templates(code string) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, fmt.Sprintf(t, code))
	}
	return out
}
