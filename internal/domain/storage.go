package domain

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// StoragePath builds the object path for an uploaded file.
// Format: <namespace>/<unix-millis>-<file name>
func StoragePath(namespace, fileName string, now time.Time) string {
	name := sanitizeFileName(fileName)
	object := fmt.Sprintf("%d-%s", now.UnixMilli(), name)
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		return object
	}
	return path.Join(namespace, object)
}

// sanitizeFileName drops directories and characters object stores reject.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20, r == '?', r == '#', r == '%', r == '\\':
			return -1
		}
		return r
	}, name)
}
