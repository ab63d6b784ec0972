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
package logentryfingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/field"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/types"
)

// FieldValue is the type of the field carrying the resulting fingerprint.
type FieldValue string

// PreHook stamps every log entry with a fingerprint of the code location it
// was issued from: a hash of the level, the static part of the message, the
// types of the format arguments and the structured-field keys. Everything
// that varies between entries from the same call site (trace IDs, layer IDs,
// argument values) is ignored, so the fingerprint groups the coordinator's
// log stream by call site.
//
// The analysis and metadata pipelines issue the same entries for every task
// they run; this field is what log tooling aggregates them by.
//
// To override the algorithm of the fingerprint, just set another hook.
type PreHook struct{}

var _ logger.PreHook = PreHook{}

// FieldKey is the key of the field carrying the fingerprint
// (see also FieldValue).
const FieldKey = "geosafe/logentryfingerprint"

func fingerprintResult(
	level logger.Level,
	staticMessage string,
	fields field.AbstractFields,
	customArgs []any,
) types.PreHookResult {
	h := sha1.New() // no adversary here, the hash only needs to avoid accidental collisions
	h.Write([]byte(fmt.Sprintf("%s-%s", level, staticMessage)))
	for _, arg := range customArgs {
		h.Write([]byte{0})
		h.Write([]byte(reflect.ValueOf(arg).Type().Name()))
	}
	if fields != nil {
		fields.ForEachField(func(f *field.Field) bool {
			h.Write([]byte{0})
			h.Write([]byte(f.Key))
			return true
		})
	}

	return types.PreHookResult{
		ExtraFields: &field.Field{
			Key:   FieldKey,
			Value: FieldValue(hex.EncodeToString(h.Sum(nil))),
		},
	}
}

// ProcessInput implements logger.PreHook.
func (PreHook) ProcessInput(_ belt.TraceIDs, level logger.Level, args ...any) types.PreHookResult {
	return fingerprintResult(level, "", nil, args)
}

// ProcessInputf implements logger.PreHook.
func (PreHook) ProcessInputf(_ belt.TraceIDs, level logger.Level, format string, _ ...any) types.PreHookResult {
	return fingerprintResult(level, format, nil, nil)
}

// ProcessInputFields implements logger.PreHook.
func (PreHook) ProcessInputFields(_ belt.TraceIDs, level logger.Level, message string, fields field.AbstractFields) types.PreHookResult {
	return fingerprintResult(level, message, fields, nil)
}
