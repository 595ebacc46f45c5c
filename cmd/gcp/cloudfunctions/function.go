// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package cloudfunctions

import (
	"context"

	"github.com/adtech-devops/cm360-relay/cmd"
)

// PubSubMessage is the payload of a Pub/Sub message; Data is base64
// encoded on the wire and decoded by the Cloud Functions runtime
type PubSubMessage struct {
	Data []byte `json:"data"`
}

// HandleConversionUpload consumes a Pub/Sub message carrying a conversion
// envelope and relays it to the CM360 batch insert API
func HandleConversionUpload(ctx context.Context, m PubSubMessage) error {
	return cmd.ServerlessRequestHandler(ctx, m.Data)
}

// HandleConversionDelegation consumes a Pub/Sub message naming a BigQuery
// staging table and re-publishes its rows as conversion envelopes
func HandleConversionDelegation(ctx context.Context, m PubSubMessage) error {
	return cmd.ServerlessDelegationHandler(ctx, m.Data)
}
