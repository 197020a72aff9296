// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package blunder

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestValues(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(int(unix.EPERM), NotPermError.Value())
	assert.Equal(int(unix.ENOENT), NotFoundError.Value())
	assert.Equal(int(unix.EISDIR), AlreadyExistsAsDirError.Value())
	assert.Equal(int(unix.ENOTDIR), AlreadyExistsAsFileError.Value())
	assert.Equal("ENOENT", NotFoundError.String())
	assert.Equal("SUCCESS", SuccessError.String())
}

func TestDefaultErrno(t *testing.T) {
	assert := assert.New(t)

	var err error

	// Since err is nil, the default value should be successErrno
	assert.Equal(successErrno, Errno(err))
	assert.True(IsSuccess(err))
	assert.False(IsNotSuccess(err))

	// Since err is non-nil, the default value should be failureErrno (-1)
	err = fmt.Errorf("This is an ordinary error")
	assert.Equal(failureErrno, Errno(err))
	assert.False(IsSuccess(err))
	assert.True(IsNotSuccess(err))

	err = AddError(err, InvalidArgError)
	assert.Equal(InvalidArgError.Value(), Errno(err))
	assert.True(Is(err, BadObjectNameError))
}

func TestAddValue(t *testing.T) {
	assert := assert.New(t)

	// Add value to a nil error (not recommended as a strategy, but it needs to work anyway)
	var err error
	err = AddError(err, ReadOnlyError)
	assert.Equal(ReadOnlyError.Value(), Errno(err))
	assert.True(hasErrnoValue(err))
	assert.True(Is(err, ReadOnlyError))
	assert.False(Is(err, NotFoundError))
	assert.True(IsNot(err, InvalidArgError))

	err = fmt.Errorf("This is an ordinary error")
	err = AddError(err, NameTooLongError)
	assert.Equal(NameTooLongError.Value(), Errno(err))
	assert.False(Is(err, IsDirError))

	// Add a different value to a non-nil error
	err = AddError(err, ReadOnlyError)
	assert.True(Is(err, ReadOnlyError))
	assert.Contains(ErrorString(err), fmt.Sprintf("Error Value: %v", ReadOnlyError.Value()))
}

func TestNewError(t *testing.T) {
	assert := assert.New(t)

	err := NewError(AlreadyExistsAsDirError, "object already exists as a directory: %s", "/mnt/sdb1/c/o")
	assert.True(Is(err, IsDirError))
	assert.Equal(http.StatusConflict, HTTPCode(err))
	assert.Equal("object already exists as a directory: /mnt/sdb1/c/o", err.Error())
	assert.NotEqual("", SourceLine(err))

	err = NewError(NotFoundError, "gone")
	assert.Equal(http.StatusNotFound, HTTPCode(err))
}

func TestHTTPCode(t *testing.T) {
	assert := assert.New(t)

	var err error

	// Since err is nil, the default value should be 200 OK
	assert.Equal(200, HTTPCode(err))

	// Err is non-nil but http code is not set, the default value should be 500
	err = fmt.Errorf("This is an ordinary error")
	assert.Equal(500, HTTPCode(err))

	err = AddHTTPCode(err, 400)
	assert.Equal(400, HTTPCode(err))
}
