// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package uploader

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	dfareporting "google.golang.org/api/dfareporting/v3.5"

	"github.com/adtech-devops/cm360-relay/pkg/models"
)

const (
	// BatchSize is the maximum number of conversions CM360 accepts in a
	// single batch insert call
	BatchSize = 100

	requestKind    = "dfareporting#conversionsBatchInsertRequest"
	conversionKind = "dfareporting#conversion"
)

// BatchInsertAPI describes the interface for how to submit one batch of
// conversions to CM360
type BatchInsertAPI interface {
	BatchInsert(ctx context.Context, profileID int64, req *dfareporting.ConversionsBatchInsertRequest) (*dfareporting.ConversionsBatchInsertResponse, error)
}

// Uploader submits conversion batches to CM360 and interprets the
// per-line status of each response
type Uploader struct {
	api BatchInsertAPI

	log *log.Entry
}

// New creates an Uploader on top of the provided batch insert client
func New(api BatchInsertAPI) *Uploader {
	return &Uploader{
		api: api,
		log: log.WithFields(log.Fields{"target": "cm360", "api": "conversions.batchinsert"}),
	}
}

// Upload partitions the conversions into batches of at most 100 entries and
// submits each batch in input order.
//
// Per-line rejections are reported and do not stop later lines or batches;
// a transport or API level error aborts the remaining batches and is
// returned to the caller alongside the results accumulated so far.
func (u *Uploader) Upload(ctx context.Context, conversions []models.Conversion, profileID string, flConfigurationID string, flActivityID string) (*models.UploadResult, error) {
	if flActivityID == "" || flConfigurationID == "" {
		u.log.Warn("Please make sure to provide a value for both floodlightActivityId and floodlightConfigurationId; upload aborted")
		return &models.UploadResult{}, nil
	}

	profile, activity, configuration, err := parseIdentifiers(profileID, flActivityID, flConfigurationID)
	if err != nil {
		u.log.WithFields(log.Fields{"error": err}).Warn("Invalid CM360 identifiers; upload aborted")
		return &models.UploadResult{}, nil
	}

	result := &models.UploadResult{}

	batches := models.GetConversionBatches(conversions, BatchSize)
	for _, batch := range batches {
		req := buildBatchInsertRequest(batch, activity, configuration)

		resp, err := u.api.BatchInsert(ctx, profile, req)
		if err != nil {
			return result, errors.Wrap(err, "Failed to submit conversion batch to CM360")
		}

		result = result.Append(u.handleResponse(batch, resp))
	}

	u.log.Infof("Finished upload: %d batches, %d conversions inserted, %d rejected", result.Batches, result.Sent, result.Failed)
	return result, nil
}

// parseIdentifiers maps the string identifiers from the inbound envelope
// onto the int64 identifiers the API expects
func parseIdentifiers(profileID string, flActivityID string, flConfigurationID string) (int64, int64, int64, error) {
	profile, err := strconv.ParseInt(profileID, 10, 64)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "Failed to parse profile_id '%s'", profileID)
	}
	activity, err := strconv.ParseInt(flActivityID, 10, 64)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "Failed to parse floodlight_activity_id '%s'", flActivityID)
	}
	configuration, err := strconv.ParseInt(flConfigurationID, 10, 64)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "Failed to parse floodlight_configuration_id '%s'", flConfigurationID)
	}
	return profile, activity, configuration, nil
}

// buildBatchInsertRequest maps one batch of conversions onto the wire
// request, field for field with no transformation of values
func buildBatchInsertRequest(batch []models.Conversion, flActivityID int64, flConfigurationID int64) *dfareporting.ConversionsBatchInsertRequest {
	wire := make([]*dfareporting.Conversion, 0, len(batch))
	for _, c := range batch {
		wire = append(wire, &dfareporting.Conversion{
			Kind:                      conversionKind,
			Gclid:                     c.Gclid,
			FloodlightActivityId:      flActivityID,
			FloodlightConfigurationId: flConfigurationID,
			Ordinal:                   c.Ordinal,
			TimestampMicros:           c.TimestampMicros,
			Value:                     c.Revenue,
			Quantity:                  c.Quantity,
		})
	}

	return &dfareporting.ConversionsBatchInsertRequest{
		Kind:        requestKind,
		Conversions: wire,
	}
}

// handleResponse walks the per-line status of a batch insert response; a
// status line with no error entries counts as inserted
func (u *Uploader) handleResponse(batch []models.Conversion, resp *dfareporting.ConversionsBatchInsertResponse) *models.UploadResult {
	if !resp.HasFailures {
		u.log.Infof("Successfully inserted batch of %d conversions", len(batch))
		return models.NewUploadResult(int64(len(batch)), 0, nil)
	}

	var sent int64
	var failed int64
	var convErrors []*models.ConversionError

	for i, line := range resp.Status {
		if len(line.Errors) == 0 {
			sent++
			u.log.Debugf("Conversion with gclid '%s' inserted", lineGclid(batch, i, line))
			continue
		}

		failed++
		serialized := serializeStatusLine(batch, i, line)
		for _, lineErr := range line.Errors {
			u.log.Errorf("Error in conversion %s: [%s]: %s", serialized, lineErr.Code, lineErr.Message)
			convErrors = append(convErrors, &models.ConversionError{
				Code:       lineErr.Code,
				Message:    lineErr.Message,
				Conversion: serialized,
			})
		}
	}

	return models.NewUploadResult(sent, failed, convErrors)
}

// lineGclid prefers the gclid echoed back on the status line and falls
// back to the submitted conversion when the response omits it
func lineGclid(batch []models.Conversion, i int, line *dfareporting.ConversionStatus) string {
	if line.Conversion != nil && line.Conversion.Gclid != "" {
		return line.Conversion.Gclid
	}
	if i < len(batch) {
		return batch[i].Gclid
	}
	return ""
}

func serializeStatusLine(batch []models.Conversion, i int, line *dfareporting.ConversionStatus) string {
	if line.Conversion != nil {
		b, err := json.Marshal(line.Conversion)
		if err == nil {
			return string(b)
		}
	}
	if i < len(batch) {
		return batch[i].String()
	}
	return ""
}
