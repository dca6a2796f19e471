package zipstream

import (
	"errors"
	"fmt"
	"strings"
)

var errLongName = errors.New("zipstream: file name too long")

// Kind identifies the failure class of an Error.
type Kind string

const (
	KindDynamicCast             Kind = "dynamic_cast_error"
	KindUnknownFileEntry        Kind = "unknown_file_entry"
	KindEmptyFileList           Kind = "empty_file_list"
	KindMissingFileSystem       Kind = "missing_file_system"
	KindFailToWrite             Kind = "fail_to_write"
	KindFailToGetFileEntry      Kind = "fail_to_get_file_entry"
	KindFailToGetFile           Kind = "fail_to_get_file"
	KindFailToRead              Kind = "fail_to_read"
	KindReadStreamCancelled     Kind = "read_stream_cancelled"
	KindFailToCompress          Kind = "fail_to_compress"
	KindFailToCloseWriter       Kind = "fail_to_close_writer"
	KindFailToCreateWriter      Kind = "fail_to_create_writer"
	KindTooManyFiles            Kind = "too_many_files"
	KindCannotTransformDir      Kind = "can_not_transform_directory"
	KindCannotRecoverDir        Kind = "can_not_recover_directory"
	KindInvalidCompressionLevel Kind = "invalid_compression_level"
	KindFailToInvokeCallback    Kind = "fail_to_invoke_callback"
)

// Error is the error type returned by Encoder operations. The one exception
// is Compress rejecting an entry name longer than 65535 bytes, which is
// reported as a plain error, not an *Error.
//
// Location names the operation that failed. Detail carries kind-specific
// string arguments, for example the offending path or callback name.
// The underlying cause, if any, is available through Unwrap.
type Error struct {
	Kind     Kind
	Location string
	Detail   []string
	Err      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	sb.WriteString(" at ")
	sb.WriteString(e.Location)
	for _, d := range e.Detail {
		sb.WriteString(": ")
		sb.WriteString(d)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

func errDynamicCast(location, from, to string) *Error {
	return &Error{Kind: KindDynamicCast, Location: location, Detail: []string{from, to}}
}

func errUnknownFileEntry(location string) *Error {
	return &Error{Kind: KindUnknownFileEntry, Location: location}
}

func errEmptyFileList(location string) *Error {
	return &Error{Kind: KindEmptyFileList, Location: location}
}

func errMissingFileSystem(location string) *Error {
	return &Error{Kind: KindMissingFileSystem, Location: location}
}

func errFailToWrite(location string, cause error) *Error {
	return &Error{Kind: KindFailToWrite, Location: location, Err: cause}
}

func errFailToGetFileEntry(location string, cause error) *Error {
	return &Error{Kind: KindFailToGetFileEntry, Location: location, Err: cause}
}

func errFailToGetFile(location string, cause error) *Error {
	return &Error{Kind: KindFailToGetFile, Location: location, Err: cause}
}

func errFailToRead(location string, cause error) *Error {
	return &Error{Kind: KindFailToRead, Location: location, Err: cause}
}

func errReadStreamCancelled(location string) *Error {
	return &Error{Kind: KindReadStreamCancelled, Location: location}
}

func errFailToCompress(location string, cause error) *Error {
	return &Error{Kind: KindFailToCompress, Location: location, Err: cause}
}

func errFailToCloseWriter(location string, cause error) *Error {
	return &Error{Kind: KindFailToCloseWriter, Location: location, Err: cause}
}

func errFailToCreateWriter(location string, cause error) *Error {
	return &Error{Kind: KindFailToCreateWriter, Location: location, Err: cause}
}

func errTooManyFiles(location string) *Error {
	return &Error{Kind: KindTooManyFiles, Location: location}
}

func errCannotTransformDirectory(location, path string) *Error {
	return &Error{Kind: KindCannotTransformDir, Location: location, Detail: []string{path}}
}

func errCannotRecoverDirectory(location, path string) *Error {
	return &Error{Kind: KindCannotRecoverDir, Location: location, Detail: []string{path}}
}

func errInvalidCompressionLevel(location string, level int) *Error {
	return &Error{Kind: KindInvalidCompressionLevel, Location: location, Detail: []string{fmt.Sprintf("%d", level)}}
}

func errFailToInvokeCallback(location, name string, cause error) *Error {
	return &Error{Kind: KindFailToInvokeCallback, Location: location, Detail: []string{name}, Err: cause}
}
