package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWriter_WriteCSV(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewCSVWriter(tempDir, nil)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, content []byte)
	}{
		{
			name:     "basic write with headers",
			filePath: "test_basic.csv",
			options: WriteOptions{
				Headers: []string{"MPN", "Date"},
				Records: [][]string{
					{"ABC123", "2025.07.07"},
					{"XYZ9", "2025.06.30"},
				},
			},
			validate: func(t *testing.T, content []byte) {
				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Equal(t, []string{"MPN,Date", "ABC123,2025.07.07", "XYZ9,2025.06.30"}, lines)
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "test_bom.csv",
			options: WriteOptions{
				Headers:   []string{"MPN", "Target_Price"},
				Records:   [][]string{{"ABC123", "11.2"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, content []byte) {
				require.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))
				lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
				assert.Equal(t, "MPN,Target_Price", lines[0])
				assert.Equal(t, "ABC123,11.2", lines[1])
			},
		},
		{
			name:     "quotes fields with commas",
			filePath: "nested/quoted.csv",
			options: WriteOptions{
				Headers: []string{"Description"},
				Records: [][]string{{"Switch, 3.2T"}},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Contains(t, string(content), `"Switch, 3.2T"`)
			},
		},
		{
			name:     "empty records",
			filePath: "test_empty.csv",
			options:  WriteOptions{Headers: []string{"Col1", "Col2"}},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "Col1,Col2", strings.TrimSpace(string(content)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))

			content, err := os.ReadFile(filepath.Join(tempDir, tt.filePath))
			require.NoError(t, err)
			tt.validate(t, content)
		})
	}
}

func TestCSVWriter_WriteReplacesExistingFile(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewCSVWriter(tempDir, nil)

	require.NoError(t, writer.WriteSimpleCSV("out.csv", []string{"A"}, [][]string{{"1"}, {"2"}}))
	require.NoError(t, writer.WriteSimpleCSV("out.csv", []string{"A"}, [][]string{{"3"}}))

	content, err := os.ReadFile(filepath.Join(tempDir, "out.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
	assert.Equal(t, []string{"A", "3"}, lines)
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewCSVWriter(tempDir, nil)

	abs := filepath.Join(tempDir, "abs", "stream.csv")
	sw, err := writer.CreateStreamWriter(abs, []string{"MPN", "QTY"})
	require.NoError(t, err)
	for _, rec := range [][]string{{"A", "1"}, {"B", "2"}} {
		require.NoError(t, sw.WriteRecord(rec))
	}
	require.NoError(t, sw.Close())

	content, err := os.ReadFile(abs)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
	assert.Equal(t, []string{"MPN,QTY", "A,1", "B,2"}, lines)
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "missing price", input: nil, want: ""},
		{name: "string", input: "ABC123", want: "ABC123"},
		{name: "quantity", input: 1250, want: "1250"},
		{name: "price", input: 11.2, want: "11.2"},
		{name: "whole price", input: 112.0, want: "112"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCell(tt.input))
		})
	}
}
