// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeConversions(count int) []Conversion {
	var conversions []Conversion
	for i := 0; i < count; i++ {
		conversions = append(conversions, Conversion{
			Gclid:           fmt.Sprintf("gclid-%d", i),
			Ordinal:         fmt.Sprintf("%d", i),
			TimestampMicros: int64(1632367965000000 + i),
			Revenue:         10.5,
			Quantity:        1,
		})
	}
	return conversions
}

func TestGetConversionBatches_Empty(t *testing.T) {
	assert := assert.New(t)

	batches := GetConversionBatches(nil, 100)
	assert.Equal(0, len(batches))

	batches = GetConversionBatches([]Conversion{}, 100)
	assert.Equal(0, len(batches))
}

func TestGetConversionBatches_NonMultiple(t *testing.T) {
	assert := assert.New(t)

	batches := GetConversionBatches(makeConversions(250), 100)
	assert.Equal(3, len(batches))
	assert.Equal(100, len(batches[0]))
	assert.Equal(100, len(batches[1]))
	assert.Equal(50, len(batches[2]))
}

func TestGetConversionBatches_ExactMultiple(t *testing.T) {
	assert := assert.New(t)

	batches := GetConversionBatches(makeConversions(200), 100)
	assert.Equal(2, len(batches))
	assert.Equal(100, len(batches[0]))
	assert.Equal(100, len(batches[1]))
}

func TestGetConversionBatches_PreservesOrder(t *testing.T) {
	assert := assert.New(t)

	conversions := makeConversions(157)
	batches := GetConversionBatches(conversions, 100)

	var flattened []Conversion
	for _, batch := range batches {
		assert.True(len(batch) > 0)
		assert.True(len(batch) <= 100)
		flattened = append(flattened, batch...)
	}
	assert.Equal(conversions, flattened)
}
