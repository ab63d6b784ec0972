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

// Package headless defines the task boundary of the remote InaSAFE compute
// workers: the queue names they consume, the names their tasks are
// registered under and builders for the invocation signatures. The workers
// themselves run elsewhere; this package only pins the contract.
package headless

import (
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/pkg/types"
)

const (
	// QueueAnalysis is consumed by the heavyweight compute workers which
	// run the impact analyses.
	QueueAnalysis = "inasafe-headless-analysis"

	// QueueMetadata is consumed by the lightweight workers which answer
	// metadata reads. It is separate from QueueAnalysis so that keyword
	// lookups are not stuck behind hours-long analysis runs.
	QueueMetadata = "inasafe-headless"
)

const (
	// TaskRunAnalysis runs an impact function over a hazard and an
	// exposure layer and returns the URL of the produced impact artifact.
	TaskRunAnalysis = "headless.run_analysis"

	// TaskReadKeywords extracts the requested keywords from an ISO
	// metadata document and returns them as a map.
	TaskReadKeywords = "headless.read_keywords_iso_metadata"
)

// RunAnalysisSignature builds the invocation of TaskRunAnalysis on
// QueueAnalysis.
//
// The layer arguments are addresses as the worker sees them (either
// "file://" paths on a shared volume or public download URLs, see
// artifact.Resolver). A nil extent means the worker derives the extent from
// the layers themselves. The worker's JSON result is the address of the
// impact artifact.
func RunAnalysisSignature(
	hazardAddress string,
	exposureAddress string,
	impactFunctionID string,
	extent *types.Extent,
	generateReport bool,
	archiveImpact bool,
	opts ...taskqueue.SignatureOption,
) (taskqueue.Signature, error) {
	return taskqueue.NewSignature(TaskRunAnalysis, QueueAnalysis, []any{
		hazardAddress,
		exposureAddress,
		impactFunctionID,
		extent,
		generateReport,
		archiveImpact,
	}, opts...)
}

// ReadKeywordsSignature builds the invocation of TaskReadKeywords on
// QueueMetadata. The worker reads the metadata document at
// metadataAddress and returns a map of the requested keywords.
func ReadKeywordsSignature(
	metadataAddress string,
	keywords []string,
	opts ...taskqueue.SignatureOption,
) (taskqueue.Signature, error) {
	return taskqueue.NewSignature(TaskReadKeywords, QueueMetadata, []any{
		metadataAddress,
		keywords,
	}, opts...)
}
