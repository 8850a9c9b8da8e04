package richtext

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxSourceSize is the largest Markdown file the render command accepts (10MB).
const maxSourceSize = 10 * 1024 * 1024

var sourceTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".mdx":      "text/markdown",
	".txt":      "text/plain",
	".html":     "text/html",
	".htm":      "text/html",
}

// DetectSourceType returns the media type for a content file. It uses the
// extension first and falls back to sniffing the first 512 bytes.
func DetectSourceType(path string) string {
	if t, ok := sourceTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}

	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n == 0 {
		return "application/octet-stream"
	}
	t, _, err := mime.ParseMediaType(http.DetectContentType(buf[:n]))
	if err != nil {
		return "application/octet-stream"
	}
	return t
}

// ValidateSource checks that path is a readable regular text file within the size limit.
func ValidateSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", filepath.Base(path), err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", filepath.Base(path))
	}
	if info.Size() > maxSourceSize {
		return fmt.Errorf("%s exceeds maximum size of 10MB", filepath.Base(path))
	}
	if t := DetectSourceType(path); !strings.HasPrefix(t, "text/") {
		return fmt.Errorf("%s is not a text file (%s)", filepath.Base(path), t)
	}
	return nil
}
