package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorableSkipsTruncatedBodies(t *testing.T) {
	assert.True(t, storable(http.StatusOK, 100, 1024))
	assert.True(t, storable(http.StatusOK, 1024, 1024))
	assert.True(t, storable(http.StatusOK, 1<<20, 0)) // no limit configured

	// a body past the capture limit was cut off and must not be served
	// from cache later
	assert.False(t, storable(http.StatusOK, 1025, 1024))
	assert.False(t, storable(http.StatusNotFound, 100, 1024))
	assert.False(t, storable(http.StatusInternalServerError, 100, 1024))
}

func TestCaptureWriterTracksFullSize(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 8}

	_, err := cw.Write([]byte("0123456789"))
	require.NoError(t, err)

	// the client still gets the whole body, the capture is clipped,
	// and size records what actually went out
	assert.Equal(t, "0123456789", rec.Body.String())
	assert.Equal(t, int64(10), cw.size)
	assert.Equal(t, "01234567", cw.buf.String())
	assert.False(t, storable(cw.status, cw.size, cw.limit))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"airports":[]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, _, _, ok := decodePayload([]byte("short"))
	assert.False(t, ok)
}
