package basic

import (
	"bufio"
	"io"
	"strings"
)

// Load reads a program, trimming each line and dropping blank ones.
func Load(input io.Reader) (lines []string, err error) {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
	}

	err = scanner.Err()
	return
}

// findLabel returns the index of the first line whose label is target, or -1.
func findLabel(lines []string, target string) int {
	for n, line := range lines {
		label, _, _ := SplitLabel(line)
		if label == target {
			return n
		}
	}
	return -1
}
