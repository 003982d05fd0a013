// Package rand produces random payloads and names for tests.
package rand

import (
	"math/rand"
	"sync"
	"time"
)

const letterBytes = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	once sync.Once
	mu   sync.Mutex
	rgen *rand.Rand
)

func gen() *rand.Rand {
	once.Do(func() {
		rgen = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
	})
	return rgen
}

// Bytes returns a random slice of bytes
func Bytes(n int) []byte {
	buf := make([]byte, n)
	mu.Lock()
	_, _ = gen().Read(buf)
	mu.Unlock()
	return buf
}

// LetterString returns a random string picked in the [0-9]|[a-z] range
func LetterString(n int) string {
	buf := Bytes(n)
	for i, b := range buf {
		buf[i] = letterBytes[int(b)%len(letterBytes)]
	}
	return string(buf)
}
