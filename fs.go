package zipstream

import "context"

// Entry is one enumerated file or directory.
//
// Path is the virtual archive path as enumerated: '/'-separated with a
// leading slash. Exactly one of IsFile and IsDir reports true for entries
// the encoder can archive; an entry reporting neither fails the scan.
type Entry interface {
	Path() string
	IsFile() bool
	IsDir() bool
}

// Directory is an Entry whose children can be listed.
//
// ReadEntries returns the next batch of children; an empty batch signals
// that the directory is exhausted. Children of one directory are returned
// before ReadEntries is called on any of them.
type Directory interface {
	Entry
	ReadEntries(ctx context.Context) ([]Entry, error)
}

// ByteSource yields a file's bytes into caller-owned buffers.
//
// Read fills p with up to len(p) bytes and reports how many were written.
// End of stream is signalled with io.EOF, either alongside the final bytes
// or on the following call; a zero-length read without io.EOF means no data
// was available yet.
type ByteSource interface {
	Read(ctx context.Context, p []byte) (int, error)
	Close() error
}

// FileSystem opens scanned paths for reading.
type FileSystem interface {
	Open(ctx context.Context, path string) (ByteSource, error)
}

// filePath is one scanned entry, in scan order.
type filePath struct {
	path  string
	isDir bool
}

// scanTree flattens entries depth-first, directories before their contents,
// appending to e.paths and reporting scan progress per appended entry.
//
// Recursion is reformulated as an explicit stack so that arbitrarily deep
// trees do not grow the goroutine stack across blocking ReadEntries calls.
func (e *Encoder) scanTree(ctx context.Context, location string, entries []Entry) error {
	var stack []Entry
	for i := len(entries) - 1; i >= 0; i-- {
		stack = append(stack, entries[i])
	}

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case entry.IsFile():
			e.paths = append(e.paths, filePath{path: entry.Path()})
			if err := e.reportScanProgress(len(e.paths)); err != nil {
				return err
			}
		case entry.IsDir():
			e.paths = append(e.paths, filePath{path: entry.Path(), isDir: true})
			if err := e.reportScanProgress(len(e.paths)); err != nil {
				return err
			}
			dir, ok := entry.(Directory)
			if !ok {
				return errDynamicCast(location, "Entry", "Directory")
			}
			var children []Entry
			for {
				batch, err := dir.ReadEntries(ctx)
				if err != nil {
					return errFailToGetFileEntry(location, err)
				}
				if len(batch) == 0 {
					break
				}
				children = append(children, batch...)
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		default:
			return errUnknownFileEntry(location)
		}
	}
	return nil
}
