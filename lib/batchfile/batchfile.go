package batchfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Numbers are kept as encoding/json Numbers so integers wider than a float64 survive decoding.
var jsonAPI = jsoniter.Config{UseNumber: true}.Froze()

const maxLineSize = 16 * 1024 * 1024

// Read decodes a JSON Lines file, one object per line. Blank lines are skipped.
func Read(path string) ([]map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}

	defer file.Close()

	rows, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	return rows, nil
}

func Decode(r io.Reader) ([]map[string]any, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var rows []map[string]any
	var lineNumber int
	for scanner.Scan() {
		lineNumber++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var row map[string]any
		if err := jsonAPI.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("failed to decode line %d: %w", lineNumber, err)
		}

		if row == nil {
			return nil, fmt.Errorf("line %d is not an object", lineNumber)
		}

		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan line %d: %w", lineNumber+1, err)
	}

	return rows, nil
}
