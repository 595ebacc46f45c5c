// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package statsreceiver

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	statsd "github.com/smira/go-statsd"

	"github.com/adtech-devops/cm360-relay/pkg/models"
)

// StatsDStatsReceiver holds a new client for writing statistics to a StatsD server
type StatsDStatsReceiver struct {
	client *statsd.Client
}

// NewStatsDStatsReceiver creates a new client for writing metrics to StatsD
func NewStatsDStatsReceiver(address string, prefix string, tagsRaw string) (*StatsDStatsReceiver, error) {
	tagsMap := map[string]string{}
	err := json.Unmarshal([]byte(tagsRaw), &tagsMap)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshall STATSD_TAGS to map")
	}

	var tags []statsd.Tag
	for key, value := range tagsMap {
		tags = append(tags, statsd.StringTag(key, value))
	}

	client := statsd.NewClient(address,
		statsd.MaxPacketSize(1400),
		statsd.MetricPrefix(fmt.Sprintf("%s.", prefix)),
		statsd.TagStyle(statsd.TagFormatDatadog),
		statsd.DefaultTags(tags...),
	)

	return &StatsDStatsReceiver{
		client: client,
	}, nil
}

// Send emits the result of an upload run to the receiver
func (s *StatsDStatsReceiver) Send(r *models.UploadResult) {
	s.client.Gauge("batches", r.Batches)
	s.client.Incr("conversions_sent", r.Sent)
	s.client.Incr("conversions_failed", r.Failed)
	s.client.Incr("conversions_total", r.Total())
}

// Close terminates the underlying statsd client
func (s *StatsDStatsReceiver) Close() error {
	return s.client.Close()
}
