// SPDX-License-Identifier: MIT

package document

import (
	"fmt"
	"strconv"
	"strings"
)

// JoinPath appends a mapping key to a parent key path.
func JoinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// IndexPath appends a sequence index to a parent key path,
// producing paths like "model.lora.config[2]".
func IndexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// splitPath breaks a dotted key path into lookup steps. A step is either a
// mapping key (string) or a sequence index (int).
func splitPath(path string) ([]any, error) {
	var steps []any
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("empty path segment in %q", path)
		}
		for {
			open := strings.IndexByte(part, '[')
			if open == -1 {
				steps = append(steps, part)
				break
			}
			if open > 0 {
				steps = append(steps, part[:open])
			}
			rest := part[open+1:]
			closing := strings.IndexByte(rest, ']')
			if closing == -1 {
				return nil, fmt.Errorf("unterminated index in %q", path)
			}
			idx, err := strconv.Atoi(rest[:closing])
			if err != nil {
				return nil, fmt.Errorf("invalid index %q in %q", rest[:closing], path)
			}
			steps = append(steps, idx)
			part = rest[closing+1:]
			if part == "" {
				break
			}
			if part[0] != '[' {
				return nil, fmt.Errorf("malformed path %q", path)
			}
		}
	}
	return steps, nil
}
