// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package models

// ConversionError holds a single per-line rejection returned by the
// batch insert API, attributed to the conversion that was submitted
type ConversionError struct {
	Code       string
	Message    string
	Conversion string
}

// UploadResult contains the accumulated results from submitting one or
// more conversion batches
type UploadResult struct {
	Sent   int64
	Failed int64

	// Batches is how many batch insert calls were attempted
	Batches int64

	// Errors holds the per-line rejections across all batches
	Errors []*ConversionError
}

// NewUploadResult builds a result structure for a single batch insert
// attempt containing the inserted and rejected line counts
func NewUploadResult(sent int64, failed int64, errors []*ConversionError) *UploadResult {
	return &UploadResult{
		Sent:    sent,
		Failed:  failed,
		Batches: 1,
		Errors:  errors,
	}
}

// Total returns the sum of Sent + Failed conversions
func (ur *UploadResult) Total() int64 {
	return ur.Sent + ur.Failed
}

// Append will add another upload result to the source one to allow for
// result concatenation across batches and then return the resultant struct
func (ur *UploadResult) Append(nur *UploadResult) *UploadResult {
	urC := *ur

	if nur != nil {
		urC.Sent += nur.Sent
		urC.Failed += nur.Failed
		urC.Batches += nur.Batches
		urC.Errors = append(urC.Errors, nur.Errors...)
	}

	return &urC
}
