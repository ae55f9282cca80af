package navigator

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// bodyDecoder turns an encoded response body into a plaintext reader.
type bodyDecoder func(io.Reader) (io.ReadCloser, error)

// decoders maps a Content-Encoding token to its decoder. Catalog sites
// routinely serve compressed HTML; keeping the set here means RoundTrip and
// the advertised Accept-Encoding can never disagree.
var decoders = map[string]bodyDecoder{
	"gzip": func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	"br": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(brotli.NewReader(r)), nil
	},
	"zstd": func(r io.Reader) (io.ReadCloser, error) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	},
}

const acceptedEncodings = "gzip, br, zstd"

// decodingTransport is an http.RoundTripper that advertises the supported
// encodings and transparently decodes the response, so the navigator and the
// archive downloader only ever see plaintext bodies.
type decodingTransport struct {
	next http.RoundTripper
}

func newDecodingTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &decodingTransport{next: next}
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Work on a copy; RoundTrippers must not mutate the caller's request.
	req = withAcceptEncoding(req)

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Bodiless responses (HEAD, 204, 304) have nothing to decode.
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	decode, ok := decoders[lastEncoding(resp.Header.Get("Content-Encoding"))]
	if !ok {
		// Identity or an encoding we didn't ask for; pass through untouched.
		return resp, nil
	}

	plain, err := decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	resp.Body = &decodedBody{plain: plain, encoded: resp.Body}

	// The decoded body invalidates both headers.
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1

	return resp, nil
}

// withAcceptEncoding returns a shallow request copy with deep-copied headers
// and the supported encodings advertised, unless the caller already chose.
func withAcceptEncoding(req *http.Request) *http.Request {
	r := new(http.Request)
	*r = *req

	r.Header = make(http.Header, len(req.Header))
	for k, v := range req.Header {
		r.Header[k] = append([]string(nil), v...)
	}
	if r.Header.Get("Accept-Encoding") == "" {
		r.Header.Set("Accept-Encoding", acceptedEncodings)
	}
	return r
}

// decodedBody reads through the decoder and closes both the decoder and the
// underlying network body.
type decodedBody struct {
	plain   io.ReadCloser
	encoded io.ReadCloser
}

func (d *decodedBody) Read(p []byte) (int, error) {
	return d.plain.Read(p)
}

func (d *decodedBody) Close() error {
	plainErr := d.plain.Close()
	encodedErr := d.encoded.Close()

	if plainErr != nil {
		return plainErr
	}
	return encodedErr
}

// lastEncoding extracts the final token of a Content-Encoding list. For
// stacked encodings like "gzip, br" the last one was applied last and must
// be undone first.
func lastEncoding(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	parts := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}
