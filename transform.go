package zipstream

import (
	"context"
	"errors"
	"io"
	"path"
)

// Transform applies the invertible byte transform to the single scanned
// file and writes the result to a new sink named after the file's base
// name. Exactly one non-directory entry must have been scanned.
//
// The script argument selects only the built-in block transform and is
// otherwise ignored.
func (e *Encoder) Transform(ctx context.Context, script string) error {
	_ = script
	return e.transformOne(ctx, "Encoder.Transform", false)
}

// Recover undoes Transform. The transform is self-inverse, so recovery is
// the identical pass over the transformed file.
func (e *Encoder) Recover(ctx context.Context, script string) error {
	_ = script
	return e.transformOne(ctx, "Encoder.Recover", true)
}

func (e *Encoder) transformOne(ctx context.Context, location string, recovering bool) error {
	if len(e.paths) == 0 {
		return errEmptyFileList(location)
	}
	if len(e.paths) > 1 {
		return errTooManyFiles(location)
	}
	fp := e.paths[0]
	if fp.isDir {
		if recovering {
			return errCannotRecoverDirectory(location, fp.path)
		}
		return errCannotTransformDirectory(location, fp.path)
	}
	if e.fsys == nil {
		return errMissingFileSystem(location)
	}

	src, err := e.fsys.Open(ctx, fp.path)
	if err != nil {
		return errFailToGetFile(location, err)
	}
	defer src.Close()

	sink, err := e.newSink(ctx, location, path.Base(fp.path))
	if err != nil {
		return err
	}

	tw := newTransformWriter(sink, e.config.SinkChunkThreshold, e.config.TransformBlockSize, false)
	buf := make([]byte, e.config.ReadBufferSize)
	for {
		n, rerr := src.Read(ctx, buf)
		if n > 0 {
			tw.Write(buf[:n])
			if derr := tw.Dump(ctx, true); derr != nil {
				return derr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if errors.Is(rerr, context.Canceled) || errors.Is(rerr, context.DeadlineExceeded) {
				return errReadStreamCancelled(location)
			}
			return errFailToRead(location, rerr)
		}
	}

	tw.flushTransform()
	if err := tw.Dump(ctx, false); err != nil {
		return err
	}
	if err := sink.Close(ctx); err != nil {
		return errFailToCloseWriter(location, err)
	}
	return nil
}
