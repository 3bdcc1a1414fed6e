// Package idgen provides URL-safe component identifiers backed by
// nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for generated identifiers.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

// UUIDLength is the length of a component uuid.
var UUIDLength = 20

// NewUUID returns a component uuid.
func NewUUID() (string, error) {
	return generate(UUIDLength)
}

func generate(n int) (string, error) {
	id, err := nanoid.Generate(Alphabet, n)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}
