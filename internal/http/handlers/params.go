package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rsamf/gamma/internal/platform/apierr"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apierr.Invalid("invalid_"+name, err)
	}
	return id, nil
}

// optionalUUIDQuery returns nil when the query parameter is absent.
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apierr.Invalid("invalid_"+name, err)
	}
	return &id, nil
}

func requiredUUIDQuery(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := optionalUUIDQuery(c, name)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, apierr.Invalid("missing_"+name, errors.New(name+" is required"))
	}
	return *id, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apierr.Invalid("invalid_"+name, errors.New(name+" must be a non-negative integer"))
	}
	return n, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.Invalid("invalid_request", err)
	}
	return nil
}
