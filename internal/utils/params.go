package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UUIDParam reads a path parameter and validates it as a UUID. Malformed
// ids are rejected at the boundary, before any query runs.
func UUIDParam(ctx *gin.Context, name string) (string, error) {
	value := ctx.Param(name)

	if value == "" {
		return "", errors.New(name + " not found")
	}

	if _, err := uuid.Parse(value); err != nil {
		return "", errors.New("invalid " + name)
	}

	return value, nil
}

// UUIDQuery reads an optional query parameter and validates it as a UUID
// when present.
func UUIDQuery(ctx *gin.Context, name string) (string, error) {
	value := ctx.Query(name)

	if value == "" {
		return "", nil
	}

	if _, err := uuid.Parse(value); err != nil {
		return "", errors.New("invalid " + name)
	}

	return value, nil
}
