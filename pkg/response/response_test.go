package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func TestErrorEnvelopeCarriesStatusAndMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrEligibility, "outstanding tuition"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "ELIGIBILITY_BLOCKED", body.Error.Code)
	assert.Equal(t, "outstanding tuition", body.Error.Message)
}

func TestAttachmentSetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "application/pdf", "DECL-2026-000001.pdf", []byte("%PDF"), map[string]string{"X-Document-Number": "DECL-2026-000001"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "DECL-2026-000001", w.Header().Get("X-Document-Number"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "DECL-2026-000001.pdf")
	assert.Equal(t, "%PDF", w.Body.String())
}
