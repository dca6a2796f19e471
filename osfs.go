package zipstream

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// OSFileSystem serves scan entries and file bytes from a directory tree on
// disk. Virtual paths are '/'-separated with a leading slash, relative to
// the root directory. Directory listings are sorted by name, so repeated
// scans of the same tree enumerate in the same order.
type OSFileSystem struct {
	root string
}

// NewOSFileSystem returns a FileSystem rooted at the given directory.
func NewOSFileSystem(root string) *OSFileSystem {
	return &OSFileSystem{root: root}
}

// Entries lists the root directory's immediate children as scan entries.
func (fsys *OSFileSystem) Entries(ctx context.Context) ([]Entry, error) {
	root := &osEntry{fsys: fsys, vpath: "/", mode: fs.ModeDir}
	return root.ReadEntries(ctx)
}

// Open opens the file at the given virtual path.
func (fsys *OSFileSystem) Open(ctx context.Context, path string) (ByteSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(fsys.hostPath(path))
	if err != nil {
		return nil, err
	}
	return &osByteSource{f: f}, nil
}

func (fsys *OSFileSystem) hostPath(vpath string) string {
	return filepath.Join(fsys.root, filepath.FromSlash(strings.TrimPrefix(vpath, "/")))
}

// osEntry is an Entry over one file or directory on disk. Irregular files
// (symlinks, devices, pipes) report neither IsFile nor IsDir and fail the
// scan.
type osEntry struct {
	fsys  *OSFileSystem
	vpath string
	mode  fs.FileMode
	read  bool
}

func (en *osEntry) Path() string { return en.vpath }
func (en *osEntry) IsFile() bool { return en.mode.IsRegular() }
func (en *osEntry) IsDir() bool  { return en.mode.IsDir() }

// ReadEntries returns the directory's children in one batch, then empty
// batches.
func (en *osEntry) ReadEntries(ctx context.Context) ([]Entry, error) {
	if en.read {
		return nil, nil
	}
	en.read = true
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := os.ReadDir(en.fsys.hostPath(en.vpath))
	if err != nil {
		return nil, err
	}
	children := make([]Entry, 0, len(list))
	for _, de := range list {
		vpath := en.vpath + de.Name()
		if en.vpath != "/" {
			vpath = en.vpath + "/" + de.Name()
		}
		children = append(children, &osEntry{fsys: en.fsys, vpath: vpath, mode: de.Type()})
	}
	return children, nil
}

type osByteSource struct {
	f *os.File
}

func (s *osByteSource) Read(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.f.Read(p)
}

func (s *osByteSource) Close() error {
	return s.f.Close()
}
