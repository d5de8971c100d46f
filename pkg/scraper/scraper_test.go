package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulstuart/gollm/unityrel/pkg/output"
)

const mockEndpoint = "https://services.example.test/graphql"

type capturedRequest struct {
	method string
	prefix string
	header http.Header
}

func TestReleasesAgainstServer(t *testing.T) {
	compressed := brotliBytes(t, pageJSON)
	captured := make(chan capturedRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Variables struct {
				Version string `json:"version"`
			} `json:"variables"`
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		captured <- capturedRequest{method: r.Method, prefix: body.Variables.Version, header: r.Header.Clone()}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(compressed)
	}))
	defer server.Close()

	client, err := NewClient(WithEndpoint(server.URL), WithTimeout(5*time.Second))
	require.NoError(t, err)

	page, err := client.Releases("2022")
	require.NoError(t, err)

	got := <-captured
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "2022", got.prefix)
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "https://unity.com", got.header.Get("Origin"))
	assert.Equal(t, UserAgent, got.header.Get("User-Agent"))
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Releases, 3)
	assert.Equal(t, "unityhub://2022.3.10f1/ff3792e53c62", page.Releases[0].HubDeepLink)
}

func TestFetchRepeatedPrefix(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, pageJSON)
	}))
	defer server.Close()

	client, err := NewClient(WithEndpoint(server.URL))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := client.Fetch("2021")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchErrorStatus(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, mockEndpoint,
		httpmock.NewStringResponder(http.StatusInternalServerError, "upstream exploded").
			HeaderSet(http.Header{"X-Request-Id": {"abc"}}))

	client, err := NewClient(WithEndpoint(mockEndpoint), WithTransport(mt))
	require.NoError(t, err)

	_, err = client.Fetch("2020")

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusInternalServerError, ne.Status)
	assert.Equal(t, "abc", ne.Header.Get("X-Request-Id"))
	assert.Equal(t, "upstream exploded", string(ne.Body))
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestFetchTransportFailure(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, mockEndpoint,
		httpmock.NewErrorResponder(errors.New("connection reset")))

	client, err := NewClient(WithEndpoint(mockEndpoint), WithTransport(mt))
	require.NoError(t, err)

	page, err := client.Releases("2019")

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Zero(t, ne.Status)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, page.Releases)
}

func TestReleasesLogsVersionKey(t *testing.T) {
	var buf bytes.Buffer
	output.SetupLoggingTo(&buf, false)
	t.Cleanup(func() { output.SetupLogging(false) })

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, mockEndpoint,
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	client, err := NewClient(WithEndpoint(mockEndpoint), WithTransport(mt))
	require.NoError(t, err)

	_, err = client.Releases("2023")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "version=2023")
	assert.NotContains(t, out, "2023:")
}

func TestReleasesParseError(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, mockEndpoint,
		httpmock.NewStringResponder(http.StatusOK, "<html>maintenance</html>"))

	client, err := NewClient(WithEndpoint(mockEndpoint), WithTransport(mt))
	require.NoError(t, err)

	page, err := client.Releases("2018")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, page.Releases)
}

func TestReleasesUnknownEncoding(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, mockEndpoint,
		httpmock.NewStringResponder(http.StatusOK, "").
			HeaderSet(http.Header{"Content-Encoding": {"compress"}}))

	client, err := NewClient(WithEndpoint(mockEndpoint), WithTransport(mt))
	require.NoError(t, err)

	// an empty body survives decoding but is not JSON
	_, err = client.Releases("2017")

	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	_, err := NewClient(WithEndpoint("not a url"))
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient()
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, client.Endpoint())
	assert.Equal(t, DefaultLimit, client.limit)
	assert.Equal(t, DefaultTimeout, client.timeout)
}
