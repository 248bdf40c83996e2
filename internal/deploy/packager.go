package deploy

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"
)

// packageModTime is fixed so the same input mapping produces the same logical
// archive on every invocation.
var packageModTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Package converts a path→content mapping into a zip byte stream with one
// entry per path. Entry names use forward slashes; callers pass only the
// active (non-tombstoned) file set.
func Package(files map[string][]byte) ([]byte, error) {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, path := range paths {
		name := strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "/")
		if name == "" {
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: packageModTime,
		})
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := w.Write(files[path]); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}
