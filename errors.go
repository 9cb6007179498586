// Copyright 2025 The Memur Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memur

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by arena and container operations. Returned
// errors may carry extra context; match them with [errors.Is].
var (
	// ErrDropListDoesNotFit is returned when a block is too small to host a
	// drop-list node. Drop lists hold on the order of a thousand records;
	// the fix is a bigger block size.
	ErrDropListDoesNotFit = errors.New("drop list does not fit in a block")

	// ErrMetadataDoesNotFit is returned by arena construction when the first
	// block cannot also host the arena metadata.
	ErrMetadataDoesNotFit = errors.New("metadata does not fit in the first arena block")

	// ErrItemDoesNotFit is returned when a requested placement exceeds the
	// largest item a single block can hold. Smaller items never fail: a new
	// block is taken from the pool instead.
	ErrItemDoesNotFit = errors.New("item is bigger than a block")

	// ErrArenaNotAlive is returned by placements through a weak handle after
	// the last strong handle is gone and the drop chain has run.
	ErrArenaNotAlive = errors.New("arena is not alive")

	// ErrStringContainsNUL is returned by [NewUStr] for input with an
	// embedded zero byte.
	ErrStringContainsNUL = errors.New("string contains a NUL byte")

	// ErrStringTooLong is returned by [NewUStr] for input longer than
	// [MaxUStrLen] bytes.
	ErrStringTooLong = errors.New("string is too long")
)

const (
	errCodeOk errCode = iota
	errCodeDropListDoesNotFit
	errCodeMetadataDoesNotFit
	errCodeItemDoesNotFit
	errCodeArenaNotAlive
)

type errCode int

var errs = [...]error{
	errCodeOk:                 nil,
	errCodeDropListDoesNotFit: ErrDropListDoesNotFit,
	errCodeMetadataDoesNotFit: ErrMetadataDoesNotFit,
	errCodeItemDoesNotFit:     ErrItemDoesNotFit,
	errCodeArenaNotAlive:      ErrArenaNotAlive,
}

// errUpload is an error produced by a placement operation.
type errUpload struct {
	code errCode
	size int // requested bytes, for item-does-not-fit
	max  int // largest placeable item, for item-does-not-fit
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *errUpload) Unwrap() error {
	return errs[e.code]
}

// Error implements [error].
func (e *errUpload) Error() string {
	if e.code == errCodeItemDoesNotFit && e.max > 0 {
		return fmt.Sprintf("memur: %v: %d bytes requested, largest is %d", e.Unwrap(), e.size, e.max)
	}
	return fmt.Sprintf("memur: %v", e.Unwrap())
}

func uploadError(code errCode) error {
	return &errUpload{code: code}
}

func itemDoesNotFit(size, maxSize int) error {
	return &errUpload{code: errCodeItemDoesNotFit, size: size, max: maxSize}
}

// errStringTooLong is [ErrStringTooLong] with the offending length attached.
type errStringTooLong struct {
	length int
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *errStringTooLong) Unwrap() error {
	return ErrStringTooLong
}

// Error implements [error].
func (e *errStringTooLong) Error() string {
	return fmt.Sprintf("memur: input string should be at most %d bytes, but was %d", MaxUStrLen, e.length)
}
