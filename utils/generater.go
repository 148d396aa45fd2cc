package utils

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName keeps the base name of an uploaded file and replaces
// anything outside [A-Za-z0-9._-] with an underscore.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

// DocumentKey builds the blob key of a medical document: a random prefix
// followed by the sanitized original name.
func DocumentKey(originalName string) string {
	return "documents/" + uuid.NewString() + "_" + SanitizeFileName(originalName)
}

// ProfilePictureKey builds the blob key of a profile picture, keeping only
// the extension of the uploaded file.
func ProfilePictureKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(SanitizeFileName(originalName)))
	return "profile-pictures/" + uuid.NewString() + ext
}

// GenerateState returns a random hex string for OAuth state values.
func GenerateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
