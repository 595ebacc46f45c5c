// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package cmd

const (
	// AppVersion is the current version of the relay
	AppVersion = "0.2.0"

	// AppName is the name of the application to use in logging / places that require the artifact
	AppName = "cm360-relay"
)
