// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package models

// GetConversionBatches returns an array of conversion batches from the
// original slice by chunking it into groups of at most batchSize entries.
//
// Order is preserved and every conversion lands in exactly one batch; an
// empty input yields zero batches rather than one empty batch.
func GetConversionBatches(conversions []Conversion, batchSize int) [][]Conversion {
	var divided [][]Conversion

	for current := 0; current < len(conversions); current += batchSize {
		end := current + batchSize
		if end > len(conversions) {
			end = len(conversions)
		}
		divided = append(divided, conversions[current:end])
	}
	return divided
}
