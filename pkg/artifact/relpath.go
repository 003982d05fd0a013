// Copyright © 2018 One Concern

package artifact

import (
	"path/filepath"
	"strings"
)

// relativePath locates an absolute path within an artifact.
//
// Paths below the working directory are relative to it. Other paths are relative
// to the root of their volume.
func relativePath(abs, workDir string) string {
	if workDir != "" {
		base := filepath.Clean(workDir) + string(filepath.Separator)
		if strings.HasPrefix(abs, base) {
			return filepath.ToSlash(abs[len(base):])
		}
	}
	rel := abs[len(filepath.VolumeName(abs)):]
	rel = strings.TrimLeft(rel, `/\`)
	return strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/")
}
