package zipstream

import "time"

// SpeedFunc receives a throughput sample: a byte count and the time span it
// was observed over. For average speed the values cover the whole operation,
// for current speed only the last reporting window.
type SpeedFunc func(bytes uint64, elapsed time.Duration) error

// RegisterScanProgress sets the callback invoked after each entry appended
// during a scan, with the running entry count.
func (e *Encoder) RegisterScanProgress(fn func(scanned int) error) {
	e.scanProgress = fn
}

// RegisterCompressProgress sets the callback invoked once before the first
// entry and after each entry finishes encoding.
func (e *Encoder) RegisterCompressProgress(fn func(done, total int) error) {
	e.compressProgress = fn
}

// RegisterAverageSpeed sets the whole-operation throughput callback.
func (e *Encoder) RegisterAverageSpeed(fn SpeedFunc) {
	e.averageSpeed = fn
}

// RegisterCurrentSpeed sets the per-window throughput callback.
func (e *Encoder) RegisterCurrentSpeed(fn SpeedFunc) {
	e.currentSpeed = fn
}

// RegisterCurrentFile sets the callback invoked at the start of each entry,
// before any of its bytes are written.
func (e *Encoder) RegisterCurrentFile(fn func(path string) error) {
	e.currentFile = fn
}

func (e *Encoder) reportScanProgress(n int) error {
	if e.scanProgress == nil {
		return nil
	}
	if err := e.scanProgress(n); err != nil {
		return errFailToInvokeCallback("Encoder.reportScanProgress", "scan_progress", err)
	}
	return nil
}

func (e *Encoder) reportCompressProgress(done, total int) error {
	if e.compressProgress == nil {
		return nil
	}
	if err := e.compressProgress(done, total); err != nil {
		return errFailToInvokeCallback("Encoder.reportCompressProgress", "compress_progress", err)
	}
	return nil
}

func (e *Encoder) reportAverageSpeed(bytes uint64, elapsed time.Duration) error {
	if e.averageSpeed == nil {
		return nil
	}
	if err := e.averageSpeed(bytes, elapsed); err != nil {
		return errFailToInvokeCallback("Encoder.reportAverageSpeed", "average_speed", err)
	}
	return nil
}

func (e *Encoder) reportCurrentSpeed(bytes uint64, elapsed time.Duration) error {
	if e.currentSpeed == nil {
		return nil
	}
	if err := e.currentSpeed(bytes, elapsed); err != nil {
		return errFailToInvokeCallback("Encoder.reportCurrentSpeed", "current_speed", err)
	}
	return nil
}

func (e *Encoder) reportCurrentFile(path string) error {
	if e.currentFile == nil {
		return nil
	}
	if err := e.currentFile(path); err != nil {
		return errFailToInvokeCallback("Encoder.reportCurrentFile", "current_file", err)
	}
	return nil
}

// speedMeter gates throughput reports to at most one pair per interval.
// The zero meter is unusable; call start before the first sample.
type speedMeter struct {
	interval  time.Duration
	now       func() time.Time
	startTime time.Time
	lastTime  time.Time
	lastBytes uint64
}

func (m *speedMeter) start() {
	m.startTime = m.now()
	m.lastTime = m.startTime
	m.lastBytes = 0
}

// sample reports a pair when at least interval has elapsed since the last
// reported pair. total is the byte count written so far.
func (m *speedMeter) sample(e *Encoder, total uint64) error {
	now := m.now()
	delta := now.Sub(m.lastTime)
	if delta < m.interval {
		return nil
	}
	if err := e.reportAverageSpeed(total, now.Sub(m.startTime)); err != nil {
		return err
	}
	if err := e.reportCurrentSpeed(total-m.lastBytes, delta); err != nil {
		return err
	}
	m.lastTime = now
	m.lastBytes = total
	return nil
}

// final reports one last pair unconditionally.
func (m *speedMeter) final(e *Encoder, total uint64) error {
	now := m.now()
	if err := e.reportAverageSpeed(total, now.Sub(m.startTime)); err != nil {
		return err
	}
	return e.reportCurrentSpeed(total-m.lastBytes, now.Sub(m.lastTime))
}
