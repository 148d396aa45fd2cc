package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "blood_test.pdf", SanitizeFileName("blood test.pdf"))
	assert.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "scan.png", SanitizeFileName(`C:\Users\me\scan.png`))
	assert.Equal(t, "file", SanitizeFileName(".."))
}

func TestDocumentKey_IsRandomlyPrefixed(t *testing.T) {
	a := DocumentKey("x-ray.png")
	b := DocumentKey("x-ray.png")

	assert.True(t, strings.HasPrefix(a, "documents/"))
	assert.True(t, strings.HasSuffix(a, "_x-ray.png"))
	assert.NotEqual(t, a, b)
}

func TestProfilePictureKey_KeepsExtension(t *testing.T) {
	key := ProfilePictureKey("Me.JPG")
	assert.True(t, strings.HasPrefix(key, "profile-pictures/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}
