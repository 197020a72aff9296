// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package blunder provides error-handling wrappers
//
// These wrappers allow callers to provide additional information in Go errors
// while still conforming to the Go error interface.
//
// This package provides APIs to add errno and HTTP status information to regular Go errors.
// The object-storage layer above diskfile branches on these values: a NotFoundError is a
// 404, an AlreadyExistsAsDirError is a 409, and so on.
//
// This package is currently implemented on top of the ansel1/merry package:
//   https://github.com/ansel1/merry
//
//   From merry godoc:
//     You can add any context information to an error with `e = merry.WithValue(e, "code", 12345)`
//     You can retrieve that value with `v, _ := merry.Value(e, "code").(int)`
//
// Errors coming straight from the OS (permission, disk full, stale handle) are NOT
// wrapped by this package; they reach the caller unmodified.
package blunder

import (
	"fmt"
	"net/http"

	"github.com/ansel1/merry"
	"golang.org/x/sys/unix"

	"github.com/NVIDIA/swiftfs/logger"
)

// FsError is an errno-valued error code carried inside a merry error.
//
// NOTE: unix.Errno is used here because they are errno constants that exist in Go-land.
//       This type consists of an unsigned number describing an error condition. It implements
//       the error interface; we need to cast it to an int to get the errno value.
//
type FsError int

const (
	// Errors that map to linux/POSIX errnos as defined in errno.h
	//
	NotPermError     FsError = FsError(int(unix.EPERM))        // Operation not permitted
	NotFoundError    FsError = FsError(int(unix.ENOENT))       // No such file or directory
	IOError          FsError = FsError(int(unix.EIO))          // I/O error
	ReadOnlyError    FsError = FsError(int(unix.EROFS))        // Read-only file system
	PermDeniedError  FsError = FsError(int(unix.EACCES))       // Permission denied
	FileExistsError  FsError = FsError(int(unix.EEXIST))       // File exists
	NotDirError      FsError = FsError(int(unix.ENOTDIR))      // Not a directory
	IsDirError       FsError = FsError(int(unix.EISDIR))       // Is a directory
	InvalidArgError  FsError = FsError(int(unix.EINVAL))       // Invalid argument
	NoSpaceError     FsError = FsError(int(unix.ENOSPC))       // No space left on device
	NameTooLongError FsError = FsError(int(unix.ENAMETOOLONG)) // File name too long
	NotEmptyError    FsError = FsError(int(unix.ENOTEMPTY))    // Directory not empty
	NoDataError      FsError = FsError(int(unix.ENODATA))      // No data available
)

// Errors that map to constants already defined above
const (
	// object content put over a marker directory
	AlreadyExistsAsDirError FsError = IsDirError
	// marker directory put over a regular file
	AlreadyExistsAsFileError FsError = NotDirError
	// write not newer than the stored object
	OlderTimestampError FsError = FileExistsError

	BadObjectNameError   FsError = InvalidArgError
	BadTimestampError    FsError = InvalidArgError
	MetadataMissingError FsError = NoDataError
)

// Success error (sounds odd, no? - perhaps this could be renamed "NotAnError"?)
const SuccessError FsError = 0

// Default errno values for success and failure
const successErrno = 0
const failureErrno = -1

// Value returns the int value for the specified FsError constant
func (err FsError) Value() int {
	return int(err)
}

// String returns the errno name of the FsError (e.g. "ENOENT")
func (err FsError) String() string {
	if SuccessError == err {
		return "SUCCESS"
	}
	name := unix.ErrnoName(unix.Errno(err))
	if "" == name {
		return fmt.Sprintf("FsError(%d)", int(err))
	}
	return name
}

// HTTPStatus returns the HTTP status the object server should answer with for err
func (err FsError) HTTPStatus() int {
	switch err {
	case SuccessError:
		return http.StatusOK
	case NotFoundError:
		return http.StatusNotFound
	case IsDirError, NotDirError, FileExistsError, NotEmptyError:
		return http.StatusConflict
	case InvalidArgError, NameTooLongError:
		return http.StatusBadRequest
	case NotPermError, PermDeniedError:
		return http.StatusForbidden
	case NoSpaceError:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// NewError creates a new merry/blunder.FsError-annotated error using the given
// format string and arguments. The HTTP code matching errValue is attached as well.
func NewError(errValue FsError, format string, a ...interface{}) error {
	return merry.WrapSkipping(fmt.Errorf(format, a...), 1).WithValue("errno", int(errValue)).WithHTTPCode(errValue.HTTPStatus())
}

// AddError is used to add FS error detail to a Go error.
//
// NOTE: Checks whether the error value has already been set
//       Note that by default merry will replace the old with the new.
//
func AddError(e error, errValue FsError) error {
	if e == nil {
		// Usually we wouldn't want to mess with a nil error, but the caller of
		// this function obviously intends to make this a non-nil error.
		return merry.New("regular error").WithValue("errno", int(errValue)).WithHTTPCode(errValue.HTTPStatus())
	}

	prevValue := Errno(e)
	if prevValue != successErrno && prevValue != failureErrno {
		logger.Warnf("replacing error value %v with value %v for error %v.", prevValue, int(errValue), e)
	}

	return merry.WrapSkipping(e, 1).WithValue("errno", int(errValue)).WithHTTPCode(errValue.HTTPStatus())
}

func hasErrnoValue(e error) bool {
	// If the "errno" key/value was not present, merry.Value returns nil.
	return nil != merry.Value(e, "errno")
}

// AddHTTPCode attaches an explicit HTTP status to e
func AddHTTPCode(e error, statusCode int) error {
	if e == nil {
		return merry.New("HTTP error").WithHTTPCode(statusCode)
	}
	return merry.WrapSkipping(e, 1).WithHTTPCode(statusCode)
}

// Errno extracts errno from the error, if it was previously wrapped.
// Otherwise a default value is returned.
//
func Errno(e error) int {
	if e == nil {
		// nil error = success
		return successErrno
	}

	var errno = failureErrno
	tmp := merry.Value(e, "errno")
	if tmp != nil {
		errno = tmp.(int)
	}

	return errno
}

// ErrorString returns e's message with its errno value appended, if set
func ErrorString(e error) string {
	if e == nil {
		return ""
	}

	errPlusVal := e.Error()

	tmp := merry.Value(e, "errno")
	if tmp != nil {
		errPlusVal = fmt.Sprintf("%s. Error Value: %v", errPlusVal, tmp.(int))
	}

	return errPlusVal
}

// Is checks if an error matches a particular FsError
//
// NOTE: Because the value of the underlying errno is used to do this check, one cannot
//       use this API to distinguish between FsErrors that use the same errno value.
//       IOW, it can't tell the difference between BadObjectNameError and InvalidArgError.
//
func Is(e error, theError FsError) bool {
	return Errno(e) == theError.Value()
}

// IsNot checks if an error is NOT a particular FsError
func IsNot(e error, theError FsError) bool {
	return Errno(e) != theError.Value()
}

// IsSuccess checks if an error is the success FsError
func IsSuccess(e error) bool {
	return Errno(e) == successErrno
}

// IsNotSuccess checks if an error is NOT the success FsError
func IsNotSuccess(e error) bool {
	return Errno(e) != successErrno
}

// HTTPCode wraps merry.HTTPCode, which returns the HTTP status code. Default value is 500.
func HTTPCode(e error) int {
	return merry.HTTPCode(e)
}

// SourceLine returns the file:line of the code that generated the error.
// Returns empty string if e has no stacktrace.
func SourceLine(e error) string {
	return merry.SourceLine(e)
}

// Details wraps merry.Details, which returns all error details including stacktrace in a string.
func Details(e error) string {
	return merry.Details(e)
}
