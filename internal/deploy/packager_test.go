package deploy

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = content
	}
	return out
}

func TestPackage(t *testing.T) {
	t.Run("round trip preserves entry and bytes", func(t *testing.T) {
		archive, err := Package(map[string][]byte{"index.html": []byte("<h1>hi</h1>")})
		require.NoError(t, err)

		entries := readArchive(t, archive)
		require.Len(t, entries, 1)
		assert.Equal(t, []byte("<h1>hi</h1>"), entries["index.html"])
	})

	t.Run("entry names use forward slashes", func(t *testing.T) {
		archive, err := Package(map[string][]byte{
			"assets\\logo.svg": []byte("<svg/>"),
			"/css/site.css":    []byte("body{}"),
		})
		require.NoError(t, err)

		entries := readArchive(t, archive)
		assert.Contains(t, entries, "assets/logo.svg")
		assert.Contains(t, entries, "css/site.css")
	})

	t.Run("same input produces same logical content", func(t *testing.T) {
		files := map[string][]byte{
			"a.txt": []byte("a"),
			"b.txt": []byte("b"),
			"c.txt": []byte("c"),
		}

		first, err := Package(files)
		require.NoError(t, err)
		second, err := Package(files)
		require.NoError(t, err)

		assert.Equal(t, readArchive(t, first), readArchive(t, second))
		// Fixed mod time and sorted entries make even the bytes stable
		// for this implementation.
		assert.Equal(t, first, second)
	})

	t.Run("empty mapping yields a valid empty archive", func(t *testing.T) {
		archive, err := Package(map[string][]byte{})
		require.NoError(t, err)
		assert.Empty(t, readArchive(t, archive))
	})
}
