// zipstream archives a directory tree into a streaming ZIP64 file.
//
//	zipstream -o out.zip [-level n] [-transform] dir
//	zipstream -mode transform [-o dir] file
//	zipstream -mode recover [-o dir] file
//
// The archive is written to a temporary file and renamed into place only on
// success, so a failed run leaves no partial output at the target path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
	"github.com/mattn/go-isatty"

	"github.com/martin-sucha/zipstream"
)

// fileSink writes archive chunks to a pending temp file and renames it over
// the destination on Close.
type fileSink struct {
	f *renameio.PendingFile
}

func (s *fileSink) Ready(ctx context.Context) error {
	return ctx.Err()
}

func (s *fileSink) Write(ctx context.Context, chunk []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.f.Write(chunk)
	return err
}

func (s *fileSink) Close(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.f.CloseAtomicallyReplace()
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("zipstream: ")

	var (
		mode      = flag.String("mode", "zip", "operation: zip, transform or recover")
		out       = flag.String("o", "", "output path (zip) or output directory (transform, recover)")
		level     = flag.Int("level", 6, "DEFLATE level, 0 through 9")
		transform = flag.Bool("transform", false, "apply the byte transform to the archive stream")
		quiet     = flag.Bool("q", false, "suppress progress output")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: zipstream [-mode zip|transform|recover] [-o out] [-level n] [-transform] path")
		os.Exit(2)
	}
	input := flag.Arg(0)

	outDir := "."
	outName := ""
	switch *mode {
	case "zip":
		target := *out
		if target == "" {
			target = filepath.Base(filepath.Clean(input)) + ".zip"
		}
		outDir = filepath.Dir(target)
		outName = filepath.Base(target)
	case "transform", "recover":
		if *out != "" {
			outDir = *out
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}

	factory := func(ctx context.Context, name string) (zipstream.Sink, error) {
		f, err := renameio.TempFile("", filepath.Join(outDir, name))
		if err != nil {
			return nil, err
		}
		return &fileSink{f: f}, nil
	}

	enc := zipstream.NewEncoder(factory, zipstream.Config{})
	showProgress := !*quiet && isatty.IsTerminal(os.Stderr.Fd())
	if showProgress {
		registerProgress(enc)
	}

	ctx := context.Background()
	var err error
	switch *mode {
	case "zip":
		err = runZip(ctx, enc, input, outName, *level, *transform)
	case "transform":
		err = runSingle(ctx, enc, input, enc.Transform)
	case "recover":
		err = runSingle(ctx, enc, input, enc.Recover)
	}
	if showProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runZip(ctx context.Context, enc *zipstream.Encoder, dir, outName string, level int, transform bool) error {
	fsys := zipstream.NewOSFileSystem(dir)
	entries, err := fsys.Entries(ctx)
	if err != nil {
		return err
	}
	if _, err := enc.Scan(ctx, fsys, entries); err != nil {
		return err
	}
	if transform {
		return enc.CompressTransform(ctx, outName, level, "")
	}
	return enc.Compress(ctx, outName, level)
}

// runSingle scans exactly one file and hands it to op (Transform or
// Recover).
func runSingle(ctx context.Context, enc *zipstream.Encoder, file string, op func(ctx context.Context, script string) error) error {
	dir := filepath.Dir(file)
	base := filepath.Base(file)
	fsys := zipstream.NewOSFileSystem(dir)
	entries, err := fsys.Entries(ctx)
	if err != nil {
		return err
	}
	var selected []zipstream.Entry
	for _, en := range entries {
		if en.Path() == "/"+base {
			selected = append(selected, en)
		}
	}
	if len(selected) == 0 {
		return fmt.Errorf("no such file: %s", file)
	}
	if _, err := enc.Scan(ctx, fsys, selected); err != nil {
		return err
	}
	return op(ctx, "")
}

func registerProgress(enc *zipstream.Encoder) {
	enc.RegisterScanProgress(func(n int) error {
		fmt.Fprintf(os.Stderr, "\rscanning... %d entries", n)
		return nil
	})
	enc.RegisterCurrentFile(func(path string) error {
		if len(path) > 50 {
			path = "..." + path[len(path)-47:]
		}
		fmt.Fprintf(os.Stderr, "\r\x1b[K%s", path)
		return nil
	})
	enc.RegisterCompressProgress(func(done, total int) error {
		fmt.Fprintf(os.Stderr, "\r\x1b[K%d/%d", done, total)
		return nil
	})
	enc.RegisterCurrentSpeed(func(bytes uint64, elapsed time.Duration) error {
		if elapsed <= 0 {
			return nil
		}
		mbps := float64(bytes) / elapsed.Seconds() / (1 << 20)
		fmt.Fprintf(os.Stderr, " %.1f MiB/s", mbps)
		return nil
	})
}
