package worker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SplitName splits name at its last dot. A leading dot does not start an
// extension, so ".bashrc" has none.
func SplitName(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// CandidateName returns name for n == 0 and base(n).ext otherwise.
func CandidateName(name string, n int) string {
	if n == 0 {
		return name
	}
	base, ext := SplitName(name)
	return fmt.Sprintf("%s(%d)%s", base, n, ext)
}

// AvailableName returns the first path in dir, trying name, base(1).ext,
// base(2).ext and so on, that does not exist yet.
//
// Nothing is reserved: two callers racing on the same name can both be handed
// the same path.
func AvailableName(dir, name string) (string, error) {
	for n := 0; ; n++ {
		path := filepath.Join(dir, CandidateName(name, n))
		_, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", err
		}
	}
}
