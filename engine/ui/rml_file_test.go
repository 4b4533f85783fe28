package ui

import (
	"io"
	"testing"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemFS(t *testing.T, files map[string]string) *mem.FS {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	for name, content := range files {
		require.NoError(t, hackpadfs.MkdirAll(fsys, dirOf(name), 0o755))
		require.NoError(t, hackpadfs.WriteFullFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func dirOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return "."
}

func TestRmlFileReadSeekTell(t *testing.T) {
	files := NewRmlFile(newMemFS(t, map[string]string{"ui/demo.rml": "<rml>hello</rml>"}))

	h, err := files.Open("/ui/demo.rml")
	require.NoError(t, err)
	assert.NotZero(t, h)

	length, err := files.Length(h)
	require.NoError(t, err)
	assert.Equal(t, int64(16), length)

	buf := make([]byte, 5)
	n, err := files.Read(h, buf)
	require.NoError(t, err)
	assert.Equal(t, "<rml>", string(buf[:n]))

	pos, err := files.Tell(h)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)

	require.NoError(t, files.Seek(h, -6, io.SeekEnd))
	n, err = files.Read(h, buf)
	require.NoError(t, err)
	assert.Equal(t, "</rml", string(buf[:n]))

	require.NoError(t, files.Seek(h, 0, io.SeekEnd))
	_, err = files.Read(h, buf)
	assert.ErrorIs(t, err, io.EOF)

	assert.Error(t, files.Seek(h, -100, io.SeekCurrent))
}

func TestRmlFileHandles(t *testing.T) {
	files := NewRmlFile(newMemFS(t, map[string]string{"a.rcss": "body{}"}))

	a, err := files.Open("a.rcss")
	require.NoError(t, err)
	b, err := files.Open(`.\a.rcss`)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, files.NumOpen())

	files.Close(a)
	assert.Equal(t, 1, files.NumOpen())
	_, err = files.Read(a, make([]byte, 1))
	assert.ErrorIs(t, err, ErrUnknownFile)
	_, err = files.Tell(a)
	assert.ErrorIs(t, err, ErrUnknownFile)

	_, err = files.Open("missing.rml")
	assert.Error(t, err)

	assert.Panics(t, func() { NewRmlFile(nil) })
}
