// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package delegator

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/adtech-devops/cm360-relay/pkg/models"
)

// requiredKeys must all carry a value for a row to be uploadable
var requiredKeys = []string{
	"conversionId",
	"conversionQuantity",
	"conversionRevenue",
	"conversionTimestamp",
	"conversionVisitExternalClickId",
}

// MapRow converts one BigQuery row into a Conversion; when any required
// value is missing the row is rejected and the missing keys are returned
// so that skip statistics can be accumulated
func MapRow(row map[string]bigquery.Value) (*models.Conversion, []string) {
	var missing []string
	for _, key := range requiredKeys {
		if v, ok := row[key]; !ok || v == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, missing
	}

	return &models.Conversion{
		Gclid:           fmt.Sprint(row["conversionVisitExternalClickId"]),
		Ordinal:         fmt.Sprint(row["conversionId"]),
		TimestampMicros: toMicros(row["conversionTimestamp"]),
		Revenue:         toFloat(row["conversionRevenue"]),
		Quantity:        toInt(row["conversionQuantity"]),
	}, nil
}

// toMicros converts a row timestamp to microseconds since the epoch
func toMicros(v bigquery.Value) int64 {
	switch t := v.(type) {
	case time.Time:
		return t.UnixNano() / int64(time.Microsecond)
	case int64:
		return t
	case float64:
		return int64(t * 1e6)
	default:
		return 0
	}
}

// toFloat widens the numeric representations BigQuery may hand back for a
// revenue column (FLOAT, NUMERIC, INTEGER)
func toFloat(v bigquery.Value) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case *big.Rat:
		f, _ := t.Float64()
		return f
	case int64:
		return float64(t)
	default:
		return 0
	}
}

func toInt(v bigquery.Value) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case float64:
		return int64(t)
	default:
		return 0
	}
}
