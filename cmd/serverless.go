// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package cmd

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"github.com/adtech-devops/cm360-relay/pkg/common"
	"github.com/adtech-devops/cm360-relay/pkg/delegator"
	"github.com/adtech-devops/cm360-relay/pkg/models"
	"github.com/adtech-devops/cm360-relay/pkg/publisher"
	"github.com/adtech-devops/cm360-relay/pkg/uploader"
)

// UploaderFactory builds the uploader for an invocation once the inbound
// envelope has been validated; injected so that tests can substitute a
// fake batch insert client
type UploaderFactory func(ctx context.Context) (*uploader.Uploader, error)

// ServerlessRequestHandler is a common function for all serverless
// implementations of the conversion upload to leverage
func ServerlessRequestHandler(ctx context.Context, data []byte) error {
	cfg, sentryEnabled, err := Init()
	if err != nil {
		return err
	}
	if sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	_, err = Process(ctx, cfg.Timezone, cfg.GetUploader, data)
	return err
}

// Process runs the decode / validate / upload pipeline over one inbound
// message body.
//
// Benign outcomes (no conversions, missing configuration) are logged and
// return a nil error so that the trigger infrastructure does not redeliver;
// decode and transport errors are returned and fail the invocation.
func Process(ctx context.Context, timezone string, factory UploaderFactory, data []byte) (*models.UploadResult, error) {
	log.Infof("[%s] - Start CM360 conversion upload", common.TimeNowStr(timezone))

	envelope, err := models.DecodeEnvelope(data)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error(err)
		return nil, err
	}

	conversions := envelope.Data.Conversions
	if len(conversions) == 0 {
		log.Warn("No conversion data passed into the function; please check your workflow for downstream errors")
		return &models.UploadResult{}, nil
	}

	uploadConfig := envelope.Data.Config
	if uploadConfig == nil || !uploadConfig.IsComplete() {
		log.Warn("Missing values profile_id, floodlight_activity_id or floodlight_configuration_id; please check the Pub/Sub message; upload aborted")
		return &models.UploadResult{}, nil
	}

	u, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Authorization successful")

	result, err := u.Upload(ctx, conversions, uploadConfig.ProfileID, uploadConfig.FloodlightConfigurationID, uploadConfig.FloodlightActivityID)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error(err)
		return result, err
	}

	log.Infof("[%s] - Finished CM360 conversion upload: %d/%d conversions inserted", common.TimeNowStr(timezone), result.Sent, result.Total())
	return result, nil
}

// ServerlessDelegationHandler is the serverless pipeline for the upstream
// delegation function: BigQuery staging table in, envelope batches out
func ServerlessDelegationHandler(ctx context.Context, data []byte) error {
	cfg, sentryEnabled, err := Init()
	if err != nil {
		return err
	}
	if sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	log.Infof("[%s] - Start conversion upload delegation", common.TimeNowStr(cfg.Timezone))

	req, err := delegator.DecodeRequest(data)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error(err)
		return err
	}

	client, err := bigquery.NewClient(ctx, cfg.Delegator.ProjectID)
	if err != nil {
		return err
	}
	defer client.Close()

	pub, err := publisher.NewPubSubPublisher(ctx, cfg.Delegator.ProjectID, req.Topic)
	if err != nil {
		return err
	}
	pub.Open()
	defer pub.Close()

	d := delegator.New(client, pub, cfg.Delegator.BatchSize, cfg.Timezone)

	err = d.Delegate(ctx, req)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error(err)
	}
	return err
}
