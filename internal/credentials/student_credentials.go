package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Word lists for generating memorable student handles
var adjectives = []string{
	"happy", "sunny", "brave", "bright", "cool", "swift", "clever", "jolly",
	"mighty", "super", "wild", "funny", "lucky", "magic", "bouncy", "cheerful",
	"daring", "eager", "gentle", "jazzy", "lively", "merry", "noble", "quick",
	"royal", "snappy", "zippy", "bold", "cosmic", "epic", "groovy", "calm",
}

var nouns = []string{
	"dragon", "tiger", "eagle", "dolphin", "panda", "lion", "wolf", "bear",
	"fox", "hawk", "shark", "phoenix", "rocket", "ninja", "wizard", "knight",
	"pirate", "robot", "hero", "explorer", "ranger", "captain", "comet", "thunder",
	"storm", "spirit", "racer", "otter", "falcon", "whale", "koala", "penguin",
}

// Ambiguous glyphs (0/O, 1/l/I) are left out so students can read passwords off a card.
const passwordAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

// PasswordLength is the length of generated student passwords
const PasswordLength = 6

// GenerateStudentHandle returns a login handle like "brave-tiger-42"
func GenerateStudentHandle() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%02d", adjective, noun, n.Int64()), nil
}

// GenerateStudentPassword returns a short random password
func GenerateStudentPassword() (string, error) {
	return gonanoid.Generate(passwordAlphabet, PasswordLength)
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
