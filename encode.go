package zipstream

import (
	"context"
	"errors"
	"hash"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
)

// archiveWriter drives one compress run: every entry in scan order through
// the encode pipeline, then the central directory and trailer.
//
// offset is the running count of bytes handed to the transform writer since
// the start of the archive; it is captured as each entry's local header
// offset and finally as the start of the central directory.
type archiveWriter struct {
	enc   *Encoder
	fsys  FileSystem
	paths []filePath

	tw  *transformWriter
	fw  *flate.Writer
	crc hash.Hash32

	offset  uint64
	headers []*FileHeader
	meter   speedMeter

	readBuf []byte
	scratch []byte
}

func (ar *archiveWriter) run(ctx context.Context) error {
	const location = "Encoder.Compress"

	total := len(ar.paths)
	if err := ar.enc.reportCompressProgress(0, total); err != nil {
		return err
	}
	ar.meter.start()

	for _, fp := range ar.paths {
		if err := ar.enc.reportCurrentFile(fp.path); err != nil {
			return err
		}

		name := strings.TrimLeft(fp.path, "/")
		if fp.isDir {
			name += "/"
		}
		if len(name) > uint16max {
			return errLongName
		}
		h := &FileHeader{Name: name, IsDir: fp.isDir, Offset: ar.offset}

		ar.scratch = h.appendLocalHeader(ar.scratch[:0])
		ar.tw.Write(ar.scratch)
		ar.offset += uint64(len(ar.scratch))
		if err := ar.tw.Dump(ctx, true); err != nil {
			return err
		}
		if err := ar.meter.sample(ar.enc, ar.offset); err != nil {
			return err
		}

		if !fp.isDir {
			src, err := ar.fsys.Open(ctx, fp.path)
			if err != nil {
				return errFailToGetFile(location, err)
			}
			err = ar.encodeFile(ctx, h, src)
			src.Close()
			if err != nil {
				return err
			}
		}

		ar.headers = append(ar.headers, h)
		if err := ar.enc.reportCompressProgress(len(ar.headers), total); err != nil {
			return err
		}
	}

	startOfCD := ar.offset
	tail := make([]byte, 0, len(ar.headers)*(directoryHeaderLen+64)+directory64EndLen+directory64LocLen+directoryEndLen)
	for _, h := range ar.headers {
		tail = h.appendDirectoryHeader(tail)
	}
	sizeOfCD := uint64(len(tail))
	tail = appendDirectoryEnd(tail, uint64(len(ar.headers)), sizeOfCD, startOfCD)

	ar.tw.Write(tail)
	ar.offset += uint64(len(tail))
	ar.tw.flushTransform()
	if err := ar.tw.Dump(ctx, false); err != nil {
		return err
	}

	return ar.meter.final(ar.enc, ar.offset)
}

// encodeFile streams one file's payload: source chunk → CRC → DEFLATE →
// transform writer, then the data descriptor. The compressor is reset onto a
// fresh counter per file, and closed at the end so each file's compressed
// stream is a complete, independently decodable DEFLATE stream.
func (ar *archiveWriter) encodeFile(ctx context.Context, h *FileHeader, src ByteSource) error {
	const location = "Encoder.Compress"

	cw := &countWriter{w: ar.tw}
	ar.fw.Reset(cw)
	ar.crc.Reset()

	var uncompressed uint64
	for {
		n, err := src.Read(ctx, ar.readBuf)
		if n > 0 {
			uncompressed += uint64(n)
			ar.crc.Write(ar.readBuf[:n])
			if _, werr := ar.fw.Write(ar.readBuf[:n]); werr != nil {
				return errFailToCompress(location, werr)
			}
			if derr := ar.tw.Dump(ctx, true); derr != nil {
				return derr
			}
			if serr := ar.meter.sample(ar.enc, ar.offset+uint64(cw.count)); serr != nil {
				return serr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return errReadStreamCancelled(location)
			}
			return errFailToRead(location, err)
		}
	}

	if err := ar.fw.Close(); err != nil {
		return errFailToCompress(location, err)
	}
	if err := ar.tw.Dump(ctx, true); err != nil {
		return err
	}
	compressed := uint64(cw.count)
	if err := ar.meter.sample(ar.enc, ar.offset+compressed); err != nil {
		return err
	}

	h.CRC32 = ar.crc.Sum32()
	h.CompressedSize64 = compressed
	h.UncompressedSize64 = uncompressed
	ar.offset += compressed

	ar.scratch = h.appendDataDescriptor(ar.scratch[:0])
	ar.tw.Write(ar.scratch)
	ar.offset += uint64(len(ar.scratch))
	if err := ar.tw.Dump(ctx, true); err != nil {
		return err
	}
	return ar.meter.sample(ar.enc, ar.offset)
}
