package scraper

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	// DefaultEndpoint is the public Unity GraphQL service.
	DefaultEndpoint = "https://services.unity.com/graphql"

	// DefaultLimit is the page size requested for each version prefix.
	DefaultLimit = 300

	operationName = "GetRelease"

	// UserAgent mimics the browser the release page is normally served to.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36 Edg/134.0.0.0"
)

const releasesQuery = `query GetRelease($limit: Int, $skip: Int, $version: String!, $stream: [UnityReleaseStream!]) {
  getUnityReleases(
    limit: $limit
    skip: $skip
    stream: $stream
    version: $version
    entitlements: [XLTS]
  ) {
    totalCount
    edges {
      node {
        version
        entitlements
        releaseDate
        unityHubDeepLink
        stream
        __typename
      }
      __typename
    }
    __typename
  }
}`

var staticHeaders = map[string]string{
	"Accept":             "*/*",
	"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8,en-GB;q=0.7,en-US;q=0.6",
	"Accept-Encoding":    "gzip, deflate, br",
	"Content-Type":       "application/json",
	"Origin":             "https://unity.com",
	"Referer":            "https://unity.com/",
	"Sec-Ch-Ua":          `"Chromium";v="134", "Not:A-Brand";v="24", "Microsoft Edge";v="134"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"Windows"`,
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-site",
	"User-Agent":         UserAgent,
	"X-Client-Name":      "web-platform-hexagon",
	"X-Client-Version":   "1.0.0",
}

// Request is a fully built GraphQL POST.
type Request struct {
	URL    string
	Header http.Header
	Body   []byte
}

type graphQLBody struct {
	OperationName string    `json:"operationName"`
	Variables     variables `json:"variables"`
	Query         string    `json:"query"`
}

type variables struct {
	Version string `json:"version"`
	Limit   int    `json:"limit"`
}

// BuildRequest describes the release query for one version prefix. The
// prefix is sent as given.
func BuildRequest(endpoint, prefix string, limit int) (*Request, error) {
	body, err := json.Marshal(graphQLBody{
		OperationName: operationName,
		Variables:     variables{Version: prefix, Limit: limit},
		Query:         releasesQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	header := make(http.Header, len(staticHeaders))
	for k, v := range staticHeaders {
		header.Set(k, v)
	}

	return &Request{URL: endpoint, Header: header, Body: body}, nil
}
