/*
Package zipstream packages a tree of files and directories into a single
ZIP64 archive emitted incrementally as a byte stream.

The encoder never holds the whole archive and never seeks: each entry's
local file header, DEFLATE-compressed payload and data descriptor are
emitted forward-only, followed by the central directory and the ZIP64
trailer. Sizes, offsets and entry counts above the 32-bit and 16-bit limits
are supported throughout; the legacy header fields always hold ZIP64
sentinels, so readers older than ZIP 4.5 will refuse the output.

Input comes from a host-provided FileSystem, output goes to a host-provided
Sink which may exert backpressure through its Ready call. An Encoder also
offers an invertible byte transform over single files (Transform and
Recover) and optionally applies the same transform to the archive stream.

See: https://www.pkware.com/appnote

This package does not support disk spanning.
*/
package zipstream

import (
	"context"
	"errors"
	"hash/crc32"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// Config holds the tunables of an Encoder. The zero value of each field
// selects its default.
type Config struct {
	// SpeedReportInterval is the minimum time between two throughput
	// reports. Default 5s.
	SpeedReportInterval time.Duration

	// TransformBlockSize is the block size of the byte transform.
	// Default 16 MiB.
	TransformBlockSize int

	// SinkChunkThreshold is how many bytes accumulate before a chunk is
	// handed to the sink. Default 16 MiB.
	SinkChunkThreshold int

	// ReadBufferSize is the size of the buffer file sources read into.
	// Default 16 MiB.
	ReadBufferSize int
}

const (
	defaultSpeedReportInterval = 5 * time.Second
	defaultTransformBlockSize  = 16 << 20
	defaultSinkChunkThreshold  = 16 << 20
	defaultReadBufferSize      = 16 << 20
)

func (c Config) withDefaults() Config {
	if c.SpeedReportInterval == 0 {
		c.SpeedReportInterval = defaultSpeedReportInterval
	}
	if c.TransformBlockSize == 0 {
		c.TransformBlockSize = defaultTransformBlockSize
	}
	if c.SinkChunkThreshold == 0 {
		c.SinkChunkThreshold = defaultSinkChunkThreshold
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}
	return c
}

// Encoder holds scan state and progress callbacks between operations.
//
// Scan results persist until the next Scan overwrites them, so one scan can
// be followed by Compress, Transform or Recover on the same handle. An
// Encoder is single-threaded: run concurrent archives on separate Encoders.
type Encoder struct {
	createSink SinkFactory
	config     Config

	fsys  FileSystem
	paths []filePath

	scanProgress     func(scanned int) error
	compressProgress func(done, total int) error
	averageSpeed     SpeedFunc
	currentSpeed     SpeedFunc
	currentFile      func(path string) error

	now func() time.Time // test hook
}

// NewEncoder returns an Encoder that writes output through sinks obtained
// from createSink.
func NewEncoder(createSink SinkFactory, config Config) *Encoder {
	return &Encoder{
		createSink: createSink,
		config:     config.withDefaults(),
		now:        time.Now,
	}
}

// Scan flattens the given entries depth-first into the encoder's entry
// list, directories before their contents, and captures fsys for the
// operations that follow. Previous scan results are discarded first.
//
// It returns the number of scanned entries.
func (e *Encoder) Scan(ctx context.Context, fsys FileSystem, entries []Entry) (int, error) {
	const location = "Encoder.Scan"

	e.paths = e.paths[:0]
	e.fsys = nil

	if len(entries) == 0 {
		return 0, errEmptyFileList(location)
	}
	e.fsys = fsys

	if err := e.scanTree(ctx, location, entries); err != nil {
		return 0, err
	}
	return len(e.paths), nil
}

// Compress writes the scanned entries as a ZIP64 archive to a new sink
// named name. A missing ".zip" suffix is appended. level is the DEFLATE
// level, 0 (no compression, still DEFLATE-framed) through 9.
//
// On failure the partially written output is left as-is and the sink is not
// closed.
func (e *Encoder) Compress(ctx context.Context, name string, level int) error {
	return e.compress(ctx, name, level, false)
}

// CompressTransform is Compress with the byte transform applied to the
// archive stream. The script argument selects only the built-in block
// transform and is otherwise ignored.
func (e *Encoder) CompressTransform(ctx context.Context, name string, level int, script string) error {
	_ = script
	return e.compress(ctx, name, level, true)
}

func (e *Encoder) compress(ctx context.Context, name string, level int, transform bool) error {
	const location = "Encoder.Compress"

	if level < 0 || level > 9 {
		return errInvalidCompressionLevel(location, level)
	}
	if len(e.paths) == 0 {
		return errEmptyFileList(location)
	}
	if e.fsys == nil {
		return errMissingFileSystem(location)
	}
	if !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}

	sink, err := e.newSink(ctx, location, name)
	if err != nil {
		return err
	}

	fw, err := flate.NewWriter(io.Discard, level)
	if err != nil {
		return errFailToCompress(location, err)
	}

	ar := &archiveWriter{
		enc:     e,
		fsys:    e.fsys,
		paths:   e.paths,
		tw:      newTransformWriter(sink, e.config.SinkChunkThreshold, e.config.TransformBlockSize, !transform),
		fw:      fw,
		crc:     crc32.NewIEEE(),
		headers: make([]*FileHeader, 0, len(e.paths)),
		meter:   speedMeter{interval: e.config.SpeedReportInterval, now: e.now},
		readBuf: make([]byte, e.config.ReadBufferSize),
	}
	if err := ar.run(ctx); err != nil {
		return err
	}
	if err := sink.Close(ctx); err != nil {
		return errFailToCloseWriter(location, err)
	}
	return nil
}

func (e *Encoder) newSink(ctx context.Context, location, name string) (Sink, error) {
	if e.createSink == nil {
		return nil, errFailToCreateWriter(location, errors.New("nil sink factory"))
	}
	sink, err := e.createSink(ctx, name)
	if err != nil {
		return nil, errFailToCreateWriter(location, err)
	}
	if sink == nil {
		return nil, errDynamicCast(location, "nil", "Sink")
	}
	return sink, nil
}
