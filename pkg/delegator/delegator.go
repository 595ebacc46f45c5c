// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package delegator

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"

	"github.com/adtech-devops/cm360-relay/pkg/common"
	"github.com/adtech-devops/cm360-relay/pkg/models"
)

// DelegationRequest is the decoded payload that triggers a delegation run
type DelegationRequest struct {
	TableName string               `json:"table_name"`
	Topic     string               `json:"topic"`
	Config    *models.UploadConfig `json:"cm360_config"`
}

// EnvelopePublisher describes the interface for how to hand a batch of
// conversions to the downstream upload function
type EnvelopePublisher interface {
	PublishEnvelope(ctx context.Context, conversions []models.Conversion, config *models.UploadConfig) error
}

// Delegator reads staged conversion rows out of BigQuery and distributes
// them to the upload topic in batches
type Delegator struct {
	client    *bigquery.Client
	publisher EnvelopePublisher
	batchSize int
	timezone  string

	log *log.Entry
}

// New creates a Delegator for the given BigQuery client and publisher
func New(client *bigquery.Client, pub EnvelopePublisher, batchSize int, timezone string) *Delegator {
	return &Delegator{
		client:    client,
		publisher: pub,
		batchSize: batchSize,
		timezone:  timezone,
		log:       log.WithFields(log.Fields{"source": "bigquery", "cloud": "GCP"}),
	}
}

// DecodeRequest unmarshals a raw delegation payload; a body that is not
// valid JSON is a hard failure for the invocation
func DecodeRequest(data []byte) (*DelegationRequest, error) {
	var r DelegationRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "Unable to parse delegation payload")
	}
	return &r, nil
}

// Delegate resolves the staging table, verifies its freshness and streams
// its rows to the upload topic in batches.
//
// A missing topic or a stale table aborts the run with a warning only, per
// the upstream workflow contract.
func (d *Delegator) Delegate(ctx context.Context, req *DelegationRequest) error {
	if req.TableName == "" {
		d.log.Warn("No table name provided; delegation aborted")
		return nil
	}

	table, md, err := d.findTable(ctx, req.TableName)
	if err != nil {
		return err
	}
	if table == nil {
		d.log.Warnf("Table '%s' not found in any dataset; please check your workflow for errors", req.TableName)
		return nil
	}

	if !IsFresh(md, time.Now().In(common.GetLocation(d.timezone))) {
		d.log.Warnf("Table '%s.%s' data may be stale; please verify that the workflow has run correctly; delegation aborted", table.DatasetID, table.TableID)
		return nil
	}

	if req.Topic == "" {
		d.log.Warn("No target Pub/Sub topic name provided; please update and retry; delegation aborted")
		return nil
	}

	return d.distribute(ctx, table, md, req.Config)
}

// findTable scans all datasets in the project for a table with the given
// name and returns the first match along with its metadata
func (d *Delegator) findTable(ctx context.Context, tableName string) (*bigquery.Table, *bigquery.TableMetadata, error) {
	it := d.client.Datasets(ctx)
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "Failed to list datasets")
		}

		table := ds.Table(tableName)
		md, err := table.Metadata(ctx)
		if err != nil {
			d.log.Debugf("Table '%s' not found in dataset '%s'", tableName, ds.DatasetID)
			continue
		}

		d.log.Infof("Table found: %s.%s created %v modified %v", md.FullID, tableName, md.CreationTime, md.LastModifiedTime)
		return table, md, nil
	}
	return nil, nil, nil
}

// distribute streams the table rows, drops rows missing required values
// and publishes the remainder in batches
func (d *Delegator) distribute(ctx context.Context, table *bigquery.Table, md *bigquery.TableMetadata, config *models.UploadConfig) error {
	d.log.Infof("Downloading %d rows from table %s", md.NumRows, md.FullID)

	var errResult error
	var batch []models.Conversion
	skipStats := map[string]int{}

	it := table.Read(ctx)
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Wrap(err, "Failed to read table rows")
		}

		conversion, missing := MapRow(row)
		if len(missing) > 0 {
			for _, key := range missing {
				skipStats[key]++
			}
			d.log.Debugf("Skipped row: missing values for keys %v", missing)
			continue
		}

		batch = append(batch, *conversion)
		if len(batch) >= d.batchSize {
			if err := d.publisher.PublishEnvelope(ctx, batch, config); err != nil {
				errResult = multierror.Append(errResult, err)
			}
			batch = nil
		}
	}

	if len(batch) > 0 {
		if err := d.publisher.PublishEnvelope(ctx, batch, config); err != nil {
			errResult = multierror.Append(errResult, err)
		}
	}

	for key, count := range skipStats {
		d.log.Infof("Skipped %d rows missing key '%s'", count, key)
	}

	if errResult != nil {
		errResult = errors.Wrap(errResult, "Error distributing conversion batches")
	}
	return errResult
}

// IsFresh reports whether the table was created or last modified on the
// given day; stale staging tables are never uploaded
func IsFresh(md *bigquery.TableMetadata, now time.Time) bool {
	y, m, day := now.Date()
	cy, cm, cd := md.CreationTime.In(now.Location()).Date()
	ly, lm, ld := md.LastModifiedTime.In(now.Location()).Date()

	created := y == cy && m == cm && day == cd
	modified := y == ly && m == lm && day == ld
	return created || modified
}
