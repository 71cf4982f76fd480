package sheets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risklo/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCSVDirProvider(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Beta.csv", "Date,,Mon,Tue\nweek,,,\n01/06,,\"$1,200\",-300\n")
	writeFile(t, dir, "Alpha.CSV", "a,b\n")
	writeFile(t, dir, "01.2025.csv", "a\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	p := NewCSVDirProvider(dir)
	ctx := context.Background()

	names, err := p.SheetNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, names)

	rows, err := p.Rows(ctx, "Beta")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.SheetRow{"01/06", "", "$1,200", "-300"}, rows[2])
	assert.Len(t, rows[1], 4)
}

func TestCSVDirProvider_NotFound(t *testing.T) {
	p := NewCSVDirProvider(t.TempDir())

	for _, name := range []string{"missing", "", "../etc/passwd", ".."} {
		_, err := p.Rows(context.Background(), name)
		assert.ErrorIs(t, err, ErrSheetNotFound, name)
	}
}

func TestReadRows_Ragged(t *testing.T) {
	rows, err := ReadRows(strings.NewReader("a\nb,c,d\n\ne,f\n"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[0], 1)
	assert.Len(t, rows[1], 3)
	assert.Len(t, rows[2], 2)
}
