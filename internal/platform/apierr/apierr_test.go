package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusOf(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(NotFound("project")))
	assert.Equal(t, http.StatusBadRequest, StatusOf(fmt.Errorf("wrapped: %w", Invalid("bad", errors.New("x")))))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(Unauthorized("sig", nil)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func TestUpstreamKeepsStatusInMessage(t *testing.T) {
	err := Upstream("mlflow", 503, errors.New("unavailable"))
	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.Equal(t, 503, err.Upstream)
	assert.Equal(t, "mlflow_error", err.Code)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "unavailable")
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("Training job")
	assert.Equal(t, "Training job not found", err.Error())
	assert.True(t, IsNotFound(err))
}
