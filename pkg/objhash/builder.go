// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
package objhash

import (
	"encoding"
	"encoding/binary"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"lukechampine.com/blake3"
)

// dumper serializes arbitrary values deterministically (map keys sorted,
// pointer addresses suppressed), so equal values always hash equally.
var dumper = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Builder is the handler which converts a set of values to an ObjHash.
type Builder struct {
	hasher *blake3.Hasher
}

// NewBuilder returns a new instance of Builder.
func NewBuilder() *Builder {
	return &Builder{
		hasher: blake3.New(Size, nil),
	}
}

// Build just calls Write and Result.
func (b *Builder) Build(args ...any) (ObjHash, error) {
	if err := b.Write(args...); err != nil {
		return ObjHash{}, err
	}
	return b.Result(), nil
}

// Write adds values.
func (b *Builder) Write(args ...any) error {
	for idx, arg := range args {
		if err := b.write(arg); err != nil {
			return fmt.Errorf("unable to append argument #%d: %w", idx, err)
		}
	}
	return nil
}

// Reset resets the set of values.
func (b *Builder) Reset() {
	b.hasher.Reset()
}

// Result returns the cache key for the current set of values.
func (b *Builder) Result() ObjHash {
	var result ObjHash
	copy(result[:], b.hasher.Sum(nil))
	return result
}

const (
	kindNil = byte(iota)
	kindBytes
	kindString
	kindText
	kindDump
)

func (b *Builder) write(arg any) error {
	switch v := arg.(type) {
	case nil:
		return b.extend(kindNil, nil)
	case []byte:
		return b.extend(kindBytes, v)
	case string:
		return b.extend(kindString, []byte(v))
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return fmt.Errorf("unable to serialize %T: %w", arg, err)
		}
		return b.extend(kindText, text)
	default:
		return b.extend(kindDump, []byte(dumper.Sprintf("%#v", arg)))
	}
}

// extend appends one kind-tagged and length-prefixed value, so adjacent
// values cannot blend into each other.
func (b *Builder) extend(kind byte, in []byte) error {
	var lenBuf [9]byte
	lenBuf[0] = kind
	binary.LittleEndian.PutUint64(lenBuf[1:], uint64(len(in)))
	if _, err := b.hasher.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("unable to extend with the value header: %w", err)
	}
	if _, err := b.hasher.Write(in); err != nil {
		return fmt.Errorf("unable to extend with the value: %w", err)
	}
	return nil
}
