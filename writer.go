package zipstream

import "context"

// transformWriter batches small producer writes into threshold-sized chunks
// for the sink and optionally applies the block transform on the way.
//
// Write and flushTransform only move bytes between internal buffers and
// never fail; Dump is the only place the sink is touched. Between calls,
// transformBuf holds strictly less than blockSize bytes and resultBuf holds
// only already-transformed bytes.
type transformWriter struct {
	sink      Sink
	threshold int
	blockSize int
	bypass    bool

	transformBuf []byte
	resultBuf    []byte
}

func newTransformWriter(sink Sink, threshold, blockSize int, bypass bool) *transformWriter {
	w := &transformWriter{
		sink:      sink,
		threshold: threshold,
		blockSize: blockSize,
		bypass:    bypass,
		resultBuf: make([]byte, 0, threshold),
	}
	if !bypass {
		w.transformBuf = make([]byte, 0, blockSize)
	}
	return w
}

// Write appends p to the internal state. It implements io.Writer and never
// returns an error, so it can sit under a compressor directly.
func (w *transformWriter) Write(p []byte) (int, error) {
	if w.bypass {
		w.resultBuf = append(w.resultBuf, p...)
		return len(p), nil
	}
	n := len(p)
	for len(p) > 0 {
		room := w.blockSize - len(w.transformBuf)
		if room > len(p) {
			room = len(p)
		}
		w.transformBuf = append(w.transformBuf, p[:room]...)
		p = p[room:]
		if len(w.transformBuf) == w.blockSize {
			w.moveBlock()
		}
	}
	return n, nil
}

// moveBlock transforms the accumulated block in place and appends it to the
// result buffer. The transform is a XOR with 0xFF per byte; applying it a
// second time recovers the original bytes.
func (w *transformWriter) moveBlock() {
	for i := range w.transformBuf {
		w.transformBuf[i] ^= 0xFF
	}
	w.resultBuf = append(w.resultBuf, w.transformBuf...)
	w.transformBuf = w.transformBuf[:0]
}

// flushTransform pushes a partially filled transform block into the result
// buffer. It does not touch the sink.
func (w *transformWriter) flushTransform() {
	if w.bypass || len(w.transformBuf) == 0 {
		return
	}
	w.moveBlock()
}

// Dump flushes the result buffer to the sink: with useThreshold, only once
// the buffer has grown to at least the threshold; without, whenever it is
// non-empty. The sink's Ready is awaited before each write, so backpressure
// stalls the producer here.
func (w *transformWriter) Dump(ctx context.Context, useThreshold bool) error {
	const location = "transformWriter.Dump"
	if useThreshold && len(w.resultBuf) < w.threshold {
		return nil
	}
	if len(w.resultBuf) == 0 {
		return nil
	}
	chunk := make([]byte, len(w.resultBuf))
	copy(chunk, w.resultBuf)
	if err := w.sink.Ready(ctx); err != nil {
		return errFailToWrite(location, err)
	}
	if err := w.sink.Write(ctx, chunk); err != nil {
		return errFailToWrite(location, err)
	}
	w.resultBuf = w.resultBuf[:0]
	return nil
}

// countWriter counts bytes on their way to the underlying writer. It sits
// between the compressor and the transform writer to measure each entry's
// compressed size.
type countWriter struct {
	w     *transformWriter
	count int64
}

func (w *countWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.count += int64(n)
	return n, err
}
