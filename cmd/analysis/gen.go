package main

import "math/rand/v2"

// alphabet is the set of characters random test strings are drawn from.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	minStringLen = 1
	maxStringLen = 100
)

// RandomString returns a string whose length is uniform in [1, 100] and
// whose characters are uniform over alphabet.
func RandomString(rng *rand.Rand) string {
	b := make([]byte, minStringLen+rng.IntN(maxStringLen-minStringLen+1))
	for i := range b {
		b[i] = alphabet[rng.IntN(len(alphabet))]
	}
	return string(b)
}
