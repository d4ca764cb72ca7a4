package ui

import (
	"strconv"
	"strings"

	"finitefield.org/recruit-admin/internal/admin/templates/helpers"
)

func joinBasePath(basePath, suffix string) string {
	return helpers.JoinPath(basePath, suffix)
}

// candidatePath builds <base>/candidates/<id>[/rest...].
func candidatePath(basePath string, id int64, rest ...string) string {
	return helpers.JoinPath(basePath, append([]string{"candidates", strconv.FormatInt(id, 10)}, rest...)...)
}

func parsePositiveIntDefault(raw string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && v > 0 {
		return v
	}
	return fallback
}
