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
	"encoding/hex"
)

// Size is the byte length of an ObjHash.
const Size = 64 // 512 bits of blake3

// ObjHash is a set of bytes which is unique and deterministic for a set
// of input values. It is supposed to be used as the key of memoization
// caches.
//
// The order of values is also important ("1, 2, 3" != "3, 2, 1").
type ObjHash [Size]byte

// MustBuild is the same as Build, but expects no error (panics if any).
func MustBuild(args ...any) ObjHash {
	result, err := Build(args...)
	if err != nil {
		panic(err)
	}
	return result
}

// Build returns an ObjHash for a set of values.
func Build(args ...any) (ObjHash, error) {
	return NewBuilder().Build(args...)
}

// String implements fmt.Stringer.
func (h ObjHash) String() string {
	return hex.EncodeToString(h[:])
}
