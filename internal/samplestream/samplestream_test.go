package samplestream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, filePath string) []string {
	var lines []string
	for line, err := range Lines(filePath) {
		require.NoError(t, err)
		lines = append(lines, line)
	}
	return lines
}

func TestLines(t *testing.T) {
	want := []string{"<START:person> Pierre Vinken <END> , 61 years old .", "", "Mr. Vinken is chairman ."}
	for _, name := range []string{"samples.txt", "samples.txt.xz"} {
		t.Run(name, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), name)
			w, err := Create(filePath)
			require.NoError(t, err)
			for _, line := range want {
				_, err := fmt.Fprintln(w, line)
				require.NoError(t, err)
			}
			require.NoError(t, w.Close())

			assert.Equal(t, want, collect(t, filePath))
			// Iterating again reopens the file.
			assert.Equal(t, want, collect(t, filePath))
		})
	}
}

func TestLinesCompressed(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "big.txt.xz")
	w, err := Create(filePath)
	require.NoError(t, err)
	line := strings.Repeat("token ", 1000)
	for range 100 {
		_, err := fmt.Fprintln(w, line)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	info, err := os.Stat(filePath)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(line)*100/10))
	assert.Len(t, collect(t, filePath), 100)
}

func TestLinesErrors(t *testing.T) {
	dir := t.TempDir()
	var count int
	for _, err := range Lines(filepath.Join(dir, "missing.txt")) {
		assert.Error(t, err)
		count++
	}
	assert.Equal(t, 1, count)

	notXZ := filepath.Join(dir, "plain.xz")
	require.NoError(t, os.WriteFile(notXZ, []byte("not compressed\n"), 0644))
	for _, err := range Lines(notXZ) {
		assert.Error(t, err)
	}
}

func TestReaderLinesCRLF(t *testing.T) {
	var lines []string
	for line, err := range ReaderLines(strings.NewReader("a b\r\nc\r\n")) {
		require.NoError(t, err)
		lines = append(lines, line)
	}
	assert.Equal(t, []string{"a b", "c"}, lines)
}
