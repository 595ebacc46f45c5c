// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package cm360

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	dfareporting "google.golang.org/api/dfareporting/v3.5"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
)

// APIScopes are the permission scopes required against the CM360 API; the
// storage scope is carried for the delegated account's staging bucket
var APIScopes = []string{
	"https://www.googleapis.com/auth/dfareporting",
	"https://www.googleapis.com/auth/dfatrafficking",
	"https://www.googleapis.com/auth/ddmconversions",
	"https://www.googleapis.com/auth/devstorage.read_write",
}

// credentialsLifetime is how long the impersonated token stays valid;
// comfortably longer than a single invocation
const credentialsLifetime = 500 * time.Second

// Client wraps the CM360 conversions service with the batch insert call
// the uploader needs
type Client struct {
	service *dfareporting.Service

	log *log.Entry
}

// NewClient creates a CM360 client authorized via short-lived impersonated
// credentials for the target service account; ambient credentials are the
// source identity
func NewClient(ctx context.Context, targetPrincipal string) (*Client, error) {
	if targetPrincipal == "" {
		return nil, errors.New("Impersonated service account must be set to build a CM360 client")
	}

	ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
		TargetPrincipal: targetPrincipal,
		Scopes:          APIScopes,
		Lifetime:        credentialsLifetime,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to build impersonated credentials")
	}

	service, err := dfareporting.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to build CM360 service")
	}

	return &Client{
		service: service,
		log:     log.WithFields(log.Fields{"client": "cm360", "impersonate": targetPrincipal}),
	}, nil
}

// BatchInsert submits one batch of conversions under the given profile
func (c *Client) BatchInsert(ctx context.Context, profileID int64, req *dfareporting.ConversionsBatchInsertRequest) (*dfareporting.ConversionsBatchInsertResponse, error) {
	c.log.Debugf("Submitting batch of %d conversions for profile %d ...", len(req.Conversions), profileID)
	return c.service.Conversions.Batchinsert(profileID, req).Context(ctx).Do()
}
