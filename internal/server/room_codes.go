package server

import (
	"errors"
	"math/rand"
	"strings"
)

// Room codes avoid visually confusable characters (0/O, 1/I/L) so they stay
// easy to read out loud and type on a phone.
const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 4
	maxCodeAttempts  = 100
)

var ErrCodeSpaceExhausted = errors.New("failed to generate a unique room code")

// GenerateRoomCode samples codes until one passes the taken check, giving up
// after a bounded number of attempts.
func GenerateRoomCode(taken func(string) bool) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		if !taken(string(code)) {
			return string(code), nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func ValidateRoomCode(code string) error {
	if len(code) != roomCodeLength {
		return errors.New("room code must be exactly 4 characters")
	}
	for _, ch := range code {
		if !strings.ContainsRune(roomCodeAlphabet, ch) {
			return errors.New("room code contains invalid characters")
		}
	}
	return nil
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
