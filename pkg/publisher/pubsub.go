// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package publisher

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/adtech-devops/cm360-relay/pkg/models"
)

// PubSubPublisher holds a new client for writing conversion envelopes to a
// Google PubSub topic
type PubSubPublisher struct {
	projectID string
	client    *pubsub.Client
	topic     *pubsub.Topic
	topicName string

	log *log.Entry
}

// NewPubSubPublisher creates a new client for writing envelopes to Google PubSub
func NewPubSubPublisher(ctx context.Context, projectID string, topicName string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create PubSub client")
	}

	return &PubSubPublisher{
		projectID: projectID,
		client:    client,
		topicName: topicName,
		log:       log.WithFields(log.Fields{"publisher": "pubsub", "cloud": "GCP", "project": projectID, "topic": topicName}),
	}, nil
}

// PublishEnvelope wraps the conversions and optional config into the
// envelope shape the upload function consumes and publishes it
func (p *PubSubPublisher) PublishEnvelope(ctx context.Context, conversions []models.Conversion, config *models.UploadConfig) error {
	if p.topic == nil {
		return errors.New("Topic has not been opened, must call Open() before attempting to publish")
	}

	envelope := models.Envelope{
		Data: models.EnvelopeData{
			Conversions: conversions,
			Config:      config,
		},
	}

	data, err := json.Marshal(&envelope)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal conversion envelope")
	}

	p.log.Debugf("Publishing envelope of %d conversions to topic ...", len(conversions))

	r := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := r.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "Error publishing envelope to PubSub topic")
	}

	p.log.Debugf("Message published to: %s", id)
	return nil
}

// Open opens a pipe to the topic
func (p *PubSubPublisher) Open() {
	p.log.Warnf("Opening publisher for topic '%s' in project %s", p.topicName, p.projectID)
	p.topic = p.client.Topic(p.topicName)
}

// Close stops the topic
func (p *PubSubPublisher) Close() {
	p.log.Warnf("Closing publisher for topic '%s' in project %s", p.topicName, p.projectID)
	p.topic.Stop()
	p.topic = nil
}
