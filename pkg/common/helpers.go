// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package common

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/twinj/uuid"
)

// temporaryDir is where runtime assets such as materialised service
// account files are staged
const temporaryDir = "tmp_relay"

// GetGCPServiceAccountFromBase64 will take a base64 encoded service
// account JSON, store it in a temporary file and return the path so that
// it can be wired into GOOGLE_APPLICATION_CREDENTIALS
func GetGCPServiceAccountFromBase64(serviceAccountB64 string) (string, error) {
	targetFile := fmt.Sprintf("%s/cm360-relay-service-account-%s.json", temporaryDir, uuid.NewV4().String())

	sDec, err := base64.StdEncoding.DecodeString(serviceAccountB64)
	if err != nil {
		return "", errors.Wrap(err, "Failed to Base64 decode service account")
	}

	err = os.MkdirAll(temporaryDir, 0755)
	if err != nil {
		return "", errors.Wrap(err, "Failed to create temporary directory")
	}

	err = os.WriteFile(targetFile, sDec, 0644)
	if err != nil {
		return "", errors.Wrap(err, "Failed to store GCP Service Account JSON file")
	}

	return targetFile, nil
}

// DeleteTemporaryDir deletes the temp directory and all of its contents
func DeleteTemporaryDir() error {
	return os.RemoveAll(temporaryDir)
}

// --- Timezone helpers

// GetLocation resolves an IANA timezone name, falling back to UTC when the
// name cannot be loaded
func GetLocation(timezone string) *time.Location {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TimeNowStr renders the current wall clock in the project timezone using
// the format the operator-facing log lines have always used
func TimeNowStr(timezone string) string {
	return time.Now().In(GetLocation(timezone)).Format("01-02-2006, 15:04:05")
}
