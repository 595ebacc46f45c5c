// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package uploader

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	dfareporting "google.golang.org/api/dfareporting/v3.5"

	"github.com/adtech-devops/cm360-relay/pkg/models"
)

// fakeBatchInsertAPI records every request and replays canned responses
type fakeBatchInsertAPI struct {
	profileIDs []int64
	requests   []*dfareporting.ConversionsBatchInsertRequest

	// responses are replayed in call order; when exhausted a clean
	// success response is returned
	responses []*dfareporting.ConversionsBatchInsertResponse

	// errOnCall fails the nth call (1-based); 0 never fails
	errOnCall int
}

func (f *fakeBatchInsertAPI) BatchInsert(ctx context.Context, profileID int64, req *dfareporting.ConversionsBatchInsertRequest) (*dfareporting.ConversionsBatchInsertResponse, error) {
	f.profileIDs = append(f.profileIDs, profileID)
	f.requests = append(f.requests, req)

	if f.errOnCall != 0 && len(f.requests) == f.errOnCall {
		return nil, errors.New("transport blew up")
	}

	if len(f.responses) >= len(f.requests) {
		return f.responses[len(f.requests)-1], nil
	}
	return &dfareporting.ConversionsBatchInsertResponse{HasFailures: false}, nil
}

func makeConversions(count int) []models.Conversion {
	var conversions []models.Conversion
	for i := 0; i < count; i++ {
		conversions = append(conversions, models.Conversion{
			Gclid:           fmt.Sprintf("gclid-%d", i),
			Ordinal:         fmt.Sprintf("%d", i),
			TimestampMicros: int64(1632367965000000 + i),
			Revenue:         19.99,
			Quantity:        1,
		})
	}
	return conversions
}

func TestUpload_GuardClause(t *testing.T) {
	assert := assert.New(t)

	api := fakeBatchInsertAPI{}
	u := New(&api)

	result, err := u.Upload(context.Background(), makeConversions(10), "123", "", "456")
	assert.Nil(err)
	assert.NotNil(result)
	assert.Equal(0, len(api.requests))
	assert.Equal(int64(0), result.Total())

	result, err = u.Upload(context.Background(), makeConversions(10), "123", "456", "")
	assert.Nil(err)
	assert.NotNil(result)
	assert.Equal(0, len(api.requests))
}

func TestUpload_InvalidIdentifiers(t *testing.T) {
	assert := assert.New(t)

	api := fakeBatchInsertAPI{}
	u := New(&api)

	result, err := u.Upload(context.Background(), makeConversions(10), "not-a-number", "456", "789")
	assert.Nil(err)
	assert.NotNil(result)
	assert.Equal(0, len(api.requests))
}

func TestUpload_BatchSizes(t *testing.T) {
	assert := assert.New(t)

	api := fakeBatchInsertAPI{}
	u := New(&api)

	result, err := u.Upload(context.Background(), makeConversions(250), "123", "456", "789")
	assert.Nil(err)
	assert.NotNil(result)

	assert.Equal(3, len(api.requests))
	assert.Equal(100, len(api.requests[0].Conversions))
	assert.Equal(100, len(api.requests[1].Conversions))
	assert.Equal(50, len(api.requests[2].Conversions))

	assert.Equal(int64(250), result.Sent)
	assert.Equal(int64(0), result.Failed)
	assert.Equal(int64(3), result.Batches)
}

func TestUpload_ZeroConversions(t *testing.T) {
	assert := assert.New(t)

	api := fakeBatchInsertAPI{}
	u := New(&api)

	result, err := u.Upload(context.Background(), nil, "123", "456", "789")
	assert.Nil(err)
	assert.NotNil(result)
	assert.Equal(0, len(api.requests))
	assert.Equal(int64(0), result.Batches)
}

func TestUpload_RequestShape(t *testing.T) {
	assert := assert.New(t)

	api := fakeBatchInsertAPI{}
	u := New(&api)

	_, err := u.Upload(context.Background(), makeConversions(2), "123", "456", "789")
	assert.Nil(err)
	assert.Equal(1, len(api.requests))
	assert.Equal([]int64{123}, api.profileIDs)

	req := api.requests[0]
	assert.Equal("dfareporting#conversionsBatchInsertRequest", req.Kind)

	first := req.Conversions[0]
	assert.Equal("dfareporting#conversion", first.Kind)
	assert.Equal("gclid-0", first.Gclid)
	assert.Equal(int64(789), first.FloodlightActivityId)
	assert.Equal(int64(456), first.FloodlightConfigurationId)
	assert.Equal("0", first.Ordinal)
	assert.Equal(int64(1632367965000000), first.TimestampMicros)
	assert.Equal(19.99, first.Value)
	assert.Equal(int64(1), first.Quantity)
}

func TestUpload_PerLineErrors(t *testing.T) {
	assert := assert.New(t)

	conversions := makeConversions(3)
	api := fakeBatchInsertAPI{
		responses: []*dfareporting.ConversionsBatchInsertResponse{
			{
				HasFailures: true,
				Status: []*dfareporting.ConversionStatus{
					{Conversion: &dfareporting.Conversion{Gclid: "gclid-0"}},
					{
						Conversion: &dfareporting.Conversion{Gclid: "gclid-1"},
						Errors: []*dfareporting.ConversionError{
							{Code: "NOT_FOUND", Message: "Floodlight activity was not found"},
						},
					},
					{Conversion: &dfareporting.Conversion{Gclid: "gclid-2"}},
				},
			},
		},
	}
	u := New(&api)

	result, err := u.Upload(context.Background(), conversions, "123", "456", "789")
	assert.Nil(err)
	assert.NotNil(result)

	assert.Equal(int64(2), result.Sent)
	assert.Equal(int64(1), result.Failed)
	assert.Equal(1, len(result.Errors))
	assert.Equal("NOT_FOUND", result.Errors[0].Code)
	assert.Equal("Floodlight activity was not found", result.Errors[0].Message)
	assert.Contains(result.Errors[0].Conversion, "gclid-1")
}

func TestUpload_MultipleErrorsPerLine(t *testing.T) {
	assert := assert.New(t)

	api := fakeBatchInsertAPI{
		responses: []*dfareporting.ConversionsBatchInsertResponse{
			{
				HasFailures: true,
				Status: []*dfareporting.ConversionStatus{
					{
						Conversion: &dfareporting.Conversion{Gclid: "gclid-0"},
						Errors: []*dfareporting.ConversionError{
							{Code: "INVALID_ARGUMENT", Message: "Gclid is not valid"},
							{Code: "INVALID_ARGUMENT", Message: "Timestamp is too old"},
						},
					},
				},
			},
		},
	}
	u := New(&api)

	result, err := u.Upload(context.Background(), makeConversions(1), "123", "456", "789")
	assert.Nil(err)

	// one failed line, both its error entries reported
	assert.Equal(int64(0), result.Sent)
	assert.Equal(int64(1), result.Failed)
	assert.Equal(2, len(result.Errors))
}

func TestUpload_TolerantFallback(t *testing.T) {
	assert := assert.New(t)

	// status lines carrying no error information in the expected shape
	// default to an inserted interpretation
	api := fakeBatchInsertAPI{
		responses: []*dfareporting.ConversionsBatchInsertResponse{
			{
				HasFailures: true,
				Status: []*dfareporting.ConversionStatus{
					{},
					{Conversion: &dfareporting.Conversion{Gclid: "gclid-1"}},
				},
			},
		},
	}
	u := New(&api)

	result, err := u.Upload(context.Background(), makeConversions(2), "123", "456", "789")
	assert.Nil(err)

	assert.Equal(int64(2), result.Sent)
	assert.Equal(int64(0), result.Failed)
	assert.Equal(0, len(result.Errors))
}

func TestUpload_TransportErrorHaltsRemainingBatches(t *testing.T) {
	assert := assert.New(t)

	api := fakeBatchInsertAPI{errOnCall: 2}
	u := New(&api)

	result, err := u.Upload(context.Background(), makeConversions(250), "123", "456", "789")
	assert.NotNil(err)
	if err != nil {
		assert.Contains(err.Error(), "Failed to submit conversion batch to CM360")
	}

	// the third batch is never attempted and the first is preserved
	assert.Equal(2, len(api.requests))
	assert.Equal(int64(100), result.Sent)
	assert.Equal(int64(1), result.Batches)
}

func TestUpload_FailuresDoNotHaltLaterBatches(t *testing.T) {
	assert := assert.New(t)

	api := fakeBatchInsertAPI{
		responses: []*dfareporting.ConversionsBatchInsertResponse{
			{
				HasFailures: true,
				Status: []*dfareporting.ConversionStatus{
					{
						Conversion: &dfareporting.Conversion{Gclid: "gclid-0"},
						Errors: []*dfareporting.ConversionError{
							{Code: "NOT_FOUND", Message: "Floodlight activity was not found"},
						},
					},
				},
			},
			{HasFailures: false},
		},
	}
	u := New(&api)

	result, err := u.Upload(context.Background(), makeConversions(150), "123", "456", "789")
	assert.Nil(err)

	assert.Equal(2, len(api.requests))
	assert.Equal(int64(2), result.Batches)
	assert.Equal(int64(1), result.Failed)
}
