package response

import (
	"Ripple/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestSuccessStatus(t *testing.T) {
	c, w := newTestContext()
	Success(c, gin.H{"id": 1})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatedStatus(t *testing.T) {
	c, w := newTestContext()
	Created(c, gin.H{"id": 1})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestFailUsesBusinessCodeAsStatus(t *testing.T) {
	c, w := newTestContext()
	Fail(c, Conflict, "duplicate")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestErrorMapsSentinel(t *testing.T) {
	c, w := newTestContext()
	Error(c, service.ErrChannelNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
