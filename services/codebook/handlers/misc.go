// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"

	"github.com/AleutianAI/codebook/services/codebook/datatypes"
	"github.com/gin-gonic/gin"
)

// LivenessText is the plaintext body served at GET /.
const LivenessText = "Backend is working!"

// Root is the plaintext liveness probe kept for the form UI.
func Root(c *gin.Context) {
	c.String(http.StatusOK, LivenessText)
}

// HealthCheck is the JSON liveness probe for orchestration.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, datatypes.HealthResponse{Status: "ok"})
}
