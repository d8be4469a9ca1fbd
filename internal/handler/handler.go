// Package handler holds helpers shared by the HTTP handlers in its
// subpackages.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hairline-crm/internal/middleware"
	"github.com/jwalitptl/hairline-crm/pkg/errors"
)

// Actor returns the id of the signed-in user, recorded on writes.
func Actor(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// BindError reports a request that failed binding or validation as a 400.
func BindError(err error) error {
	return errors.BadRequest(err.Error(), err)
}

// QueryID reads the required ?id= parameter used by the patient routes.
func QueryID(c *gin.Context) (string, error) {
	id := c.Query("id")
	if id == "" {
		return "", errors.BadRequest("id is required", nil)
	}
	return id, nil
}
