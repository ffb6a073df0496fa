// Package input expands flag and argument values that point at stdin (-)
// or at a file (@path).
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ExpandText returns v itself, the trimmed contents of stdin when v is "-",
// or the trimmed contents of the file when v is "@path". Blank lines are
// dropped and the remaining lines joined with a newline.
func ExpandText(v string, stdin io.Reader) (string, error) {
	switch {
	case v == "-":
		return strings.Join(ReadLinesFromReader(stdin), "\n"), nil
	case strings.HasPrefix(v, "@") && len(v) > 1:
		f, err := os.Open(v[1:])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", v[1:], err)
		}
		defer f.Close()
		return strings.Join(ReadLinesFromReader(f), "\n"), nil
	}
	return v, nil
}

// ReadSource reads a whole document from path, or from stdin when path is "-".
func ReadSource(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ReadLinesFromReader reads non-empty lines from a reader.
func ReadLinesFromReader(r io.Reader) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
