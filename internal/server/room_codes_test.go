package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slapjack-server/internal/server"
)

func neverTaken(string) bool { return false }

func TestGenerateRoomCodeFormat(t *testing.T) {
	for range 100 {
		code, err := server.GenerateRoomCode(neverTaken)
		require.NoError(t, err)

		assert.Equal(t, 4, len(code))
		assert.NoError(t, server.ValidateRoomCode(code))
	}
}

func TestGenerateRoomCodeAvoidsConfusableCharacters(t *testing.T) {
	for range 200 {
		code, err := server.GenerateRoomCode(neverTaken)
		require.NoError(t, err)

		for _, ch := range code {
			assert.NotContains(t, "01OIL", string(ch))
		}
	}
}

func TestGenerateRoomCodeAvoidsTakenCodes(t *testing.T) {
	taken := map[string]bool{}
	for range 500 {
		code, err := server.GenerateRoomCode(func(c string) bool { return taken[c] })
		require.NoError(t, err)

		assert.False(t, taken[code], "code %s generated twice", code)
		taken[code] = true
	}
}

func TestGenerateRoomCodeGivesUpWhenExhausted(t *testing.T) {
	_, err := server.GenerateRoomCode(func(string) bool { return true })
	assert.ErrorIs(t, err, server.ErrCodeSpaceExhausted)
}

func TestValidateRoomCode(t *testing.T) {
	assert.NoError(t, server.ValidateRoomCode("BEAR"))
	assert.NoError(t, server.ValidateRoomCode("2345"))

	assert.Error(t, server.ValidateRoomCode(""))
	assert.Error(t, server.ValidateRoomCode("ABC"))
	assert.Error(t, server.ValidateRoomCode("ABCDE"))
	assert.Error(t, server.ValidateRoomCode("AB0D"), "0 is not in the alphabet")
	assert.Error(t, server.ValidateRoomCode("abcd"), "lowercase must be normalized first")
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "BEAR", server.NormalizeRoomCode("  bear "))
	assert.Equal(t, "AB23", server.NormalizeRoomCode("ab23"))
}
