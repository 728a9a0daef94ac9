package object

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var ErrInvalidFileName = errors.New("invalid file name")

// Key builds a storage key under the owner's hashed namespace with a random prefix.
func Key(ownerID, fileName string) (string, error) {
	sanitized, err := sanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(ownerNamespace(ownerID), randomID()+"_"+sanitized), nil
}

// CleanKey rejects keys that escape the store root.
func CleanKey(storageKey string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(storageKey))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("invalid storage key %q", storageKey)
	}
	return clean, nil
}

// ownerNamespace hides owner ids (emails, guest ids) behind a stable hex digest.
func ownerNamespace(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

// sanitizeFileName flattens path separators and rejects traversal.
func sanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidFileName)
	}
	return s, nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
