// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package models

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Conversion holds a single offline conversion record as it arrives on the
// inbound envelope.  Field names mirror the upstream workflow exactly.
type Conversion struct {
	Gclid           string  `json:"conversionVisitExternalClickId"`
	Ordinal         string  `json:"conversionId"`
	TimestampMicros int64   `json:"conversionTimestampMicros"`
	Revenue         float64 `json:"conversionRevenue"`
	Quantity        int64   `json:"conversionQuantity"`
}

// String returns the serialized form of the conversion for reporting
func (c *Conversion) String() string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(b)
}

// UploadConfig holds the CM360 identifiers required to attribute a batch
// of conversions
type UploadConfig struct {
	ProfileID                 string `json:"profile_id"`
	FloodlightActivityID      string `json:"floodlight_activity_id"`
	FloodlightConfigurationID string `json:"floodlight_configuration_id"`
}

// IsComplete checks that all required identifiers have been provided
func (uc *UploadConfig) IsComplete() bool {
	return uc.ProfileID != "" && uc.FloodlightActivityID != "" && uc.FloodlightConfigurationID != ""
}

// EnvelopeData holds the inner data block of an inbound envelope; both
// fields are optional upstream so absence must stay distinguishable from
// empty (nil slice / nil pointer)
type EnvelopeData struct {
	Conversions []Conversion  `json:"conversions"`
	Config      *UploadConfig `json:"config"`
}

// Envelope is the decoded form of an inbound Pub/Sub message body
type Envelope struct {
	Data EnvelopeData `json:"data"`
}

// DecodeEnvelope unmarshals a raw message body into an Envelope; a body
// that is not valid JSON is a hard failure for the invocation
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "Failed to decode inbound envelope")
	}
	return &e, nil
}
