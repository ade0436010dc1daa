package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Allowed upload extensions, lowercase with leading dot.
var imageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ImageMIMEType returns the MIME type for an accepted image filename, or
// false when the extension is not an accepted upload type.
func ImageMIMEType(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	mime, ok := imageExtensions[ext]
	return mime, ok
}

// HashFile returns the hex SHA-256 of the file contents, used to key the
// analysis cache so re-uploads of the same artwork reuse prior verdicts.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash image: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
