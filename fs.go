package notes

import (
	"fmt"
	"io"
	"net/http"
	"os"
	pathpkg "path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// WalkFileSystem walks a file system breadth-first and calls walkFn for each regular file whose
// path passes filter. Paths are relative to the root and use forward slashes. Directories whose
// names start with "." are skipped.
func WalkFileSystem(fs http.FileSystem, filter func(path string) bool, walkFn func(path string, fi os.FileInfo) error) error {
	path := "/"
	root, err := fs.Open(path)
	if err != nil {
		return err
	}
	fi, err := root.Stat()
	root.Close()
	if err != nil {
		return err
	}

	type queueItem struct {
		path string
		fi   os.FileInfo
	}
	queue := []queueItem{{path: path, fi: fi}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		switch {
		case item.fi.Mode().IsDir(): // dir
			if item.path != "/" && strings.HasPrefix(item.fi.Name(), ".") {
				continue // skip dot-dirs
			}
			entries, err := readDir(fs, item.path)
			if err != nil {
				return err
			}
			for _, e := range entries {
				queue = append(queue, queueItem{path: pathpkg.Join(item.path, e.Name()), fi: e})
			}
		case item.fi.Mode().IsRegular(): // file
			rel := strings.TrimPrefix(item.path, "/")
			if filter != nil && !filter(rel) {
				continue
			}
			if err := walkFn(rel, item.fi); err != nil {
				return errors.WithMessage(err, fmt.Sprintf("walk %s", item.path))
			}
		default:
			return fmt.Errorf("file %s has unsupported mode %o (symlinks and other special files are not supported)", item.path, item.fi.Mode())
		}
	}
	return nil
}

func readDir(fs http.FileSystem, path string) ([]os.FileInfo, error) {
	dir, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer dir.Close()
	entries, err := dir.Readdir(-1)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// ReadFile reads the named file from fs.
func ReadFile(fs http.FileSystem, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
