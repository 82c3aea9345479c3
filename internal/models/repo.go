package models

import (
	"fmt"
	"strings"
)

// SplitRepo splits "owner/name" into its parts
func SplitRepo(full string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(full, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q is not in owner/name form", full)
	}
	return owner, name, nil
}
