package scraper

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/paulstuart/gollm/unityrel/pkg/model"
)

const (
	diagnoseTextBytes = 200
	diagnoseHexBytes  = 100
)

// Page is one parsed getUnityReleases result.
type Page struct {
	TotalCount int
	Releases   []model.Release
	Errors     []string // GraphQL error messages, if any
}

type releasesResponse struct {
	Data *struct {
		GetUnityReleases *struct {
			TotalCount int `json:"totalCount"`
			Edges      []struct {
				Node *model.Release `json:"node"`
			} `json:"edges"`
		} `json:"getUnityReleases"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ParseReleases extracts releases from data.getUnityReleases.edges[].node.
// A missing path yields an empty page; malformed JSON yields a *ParseError.
func ParseReleases(text string) (Page, error) {
	var resp releasesResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return Page{}, &ParseError{Err: err}
	}

	var page Page
	for _, e := range resp.Errors {
		page.Errors = append(page.Errors, e.Message)
	}
	if resp.Data == nil || resp.Data.GetUnityReleases == nil {
		return page, nil
	}

	rel := resp.Data.GetUnityReleases
	page.TotalCount = rel.TotalCount
	page.Releases = make([]model.Release, 0, len(rel.Edges))
	for _, edge := range rel.Edges {
		if edge.Node == nil {
			page.Releases = append(page.Releases, model.Release{})
			continue
		}
		page.Releases = append(page.Releases, *edge.Node)
	}
	return page, nil
}

// Diagnose renders a response for logging: the status, the headers as
// indented JSON, and the start of the body. Bodies that are not text are
// shown as hex.
func Diagnose(status int, header http.Header, body []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "status: %d\n", status)

	flat := make(map[string]string, len(header))
	keys := make([]string, 0, len(header))
	for k, v := range header {
		flat[k] = strings.Join(v, ", ")
		keys = append(keys, k)
	}
	sort.Strings(keys)
	hdr, err := json.MarshalIndent(flat, "", "  ")
	if err != nil {
		hdr = []byte(strings.Join(keys, ", "))
	}
	fmt.Fprintf(&b, "headers: %s\n", hdr)

	if len(body) == 0 {
		return b.String()
	}
	prefix := body
	if len(prefix) > diagnoseTextBytes {
		prefix = trimPartialRune(prefix[:diagnoseTextBytes])
	}
	if utf8.Valid(prefix) {
		fmt.Fprintf(&b, "body: %s\n", prefix)
		return b.String()
	}

	raw := body
	if len(raw) > diagnoseHexBytes {
		raw = raw[:diagnoseHexBytes]
	}
	fmt.Fprintf(&b, "body (hex): %s\n", hex.EncodeToString(raw))
	return b.String()
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}
