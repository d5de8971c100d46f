package scraper

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding/unicode"
)

// Decoder removes one content encoding from a response body.
type Decoder interface {
	// Name is the Content-Encoding token the decoder handles.
	Name() string
	Decode(body []byte) ([]byte, error)
}

// Decoders are tried in order for each Content-Encoding token; the first one
// that succeeds wins.
var Decoders = []Decoder{
	brotliDecoder{},
	gzipDecoder{},
	zlibDecoder{},
	flateDecoder{},
}

type brotliDecoder struct{}

func (brotliDecoder) Name() string { return "br" }

func (brotliDecoder) Decode(body []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
}

type gzipDecoder struct{}

func (gzipDecoder) Name() string { return "gzip" }

// Decode passes the body through when it lacks the gzip header; colly
// already inflates gzip responses itself.
func (gzipDecoder) Decode(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type zlibDecoder struct{}

func (zlibDecoder) Name() string { return "deflate" }

func (zlibDecoder) Decode(body []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// flateDecoder handles servers that send raw deflate without the zlib wrapper.
type flateDecoder struct{}

func (flateDecoder) Name() string { return "deflate" }

func (flateDecoder) Decode(body []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(body))
	defer fr.Close()
	return io.ReadAll(fr)
}

var errNoDecoder = errors.New("no decoder available")

// Decode turns a response body into text according to its Content-Encoding
// header. The returned text is always usable: when err is non-nil it is a
// *DecodeError and the text is the raw body read as UTF-8, with invalid
// sequences replaced by U+FFFD.
func Decode(header http.Header, body []byte) (string, error) {
	return decodeWith(Decoders, header.Get("Content-Encoding"), body)
}

func decodeWith(decoders []Decoder, contentEncoding string, body []byte) (string, error) {
	tokens := strings.Split(contentEncoding, ",")
	out := body
	// encodings are listed in the order they were applied
	for i := len(tokens) - 1; i >= 0; i-- {
		enc := strings.ToLower(strings.TrimSpace(tokens[i]))
		if enc == "" || enc == "identity" {
			continue
		}
		decoded, err := decodeToken(decoders, enc, out)
		if err != nil {
			return lossyText(body), &DecodeError{Encoding: enc, Err: err}
		}
		out = decoded
	}
	return lossyText(out), nil
}

func decodeToken(decoders []Decoder, enc string, body []byte) ([]byte, error) {
	var errs []error
	for _, d := range decoders {
		if d.Name() != enc {
			continue
		}
		out, err := d.Decode(body)
		if err == nil {
			return out, nil
		}
		errs = append(errs, fmt.Errorf("%T: %w", d, err))
	}
	if len(errs) == 0 {
		return nil, errNoDecoder
	}
	return nil, errors.Join(errs...)
}

func lossyText(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
