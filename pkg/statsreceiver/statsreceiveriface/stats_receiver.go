// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package statsreceiveriface

import (
	"github.com/adtech-devops/cm360-relay/pkg/models"
)

// StatsReceiver describes the interface for how to push observed upload
// statistics to a downstream store
type StatsReceiver interface {
	Send(result *models.UploadResult)
	Close() error
}
