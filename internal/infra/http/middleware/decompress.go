package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/hromada/backoffice/pkg/apierror"
)

var errDecompressedTooLarge = errors.New("decompressed body too large")

// DecompressConfig configures the decompression middleware.
type DecompressConfig struct {
	// MaxDecompressedSize caps the inflated body.
	MaxDecompressedSize int64

	// MaxCompressedSize caps the compressed input.
	MaxCompressedSize int64

	// MaxCompressionRatio rejects bodies that inflate by more than this factor.
	MaxCompressionRatio float64

	// AllowedEncodings lists the accepted Content-Encoding values.
	AllowedEncodings []string
}

// DefaultDecompressConfig returns limits sized for search requests and
// registry record batches.
func DefaultDecompressConfig() *DecompressConfig {
	return &DecompressConfig{
		MaxDecompressedSize: 8 << 20,
		MaxCompressedSize:   1 << 20,
		MaxCompressionRatio: 100,
		AllowedEncodings:    []string{"gzip", "zstd"},
	}
}

// Decompress inflates gzip or zstd request bodies. It must run before
// BodyLimit so that the limit applies to the inflated size.
func Decompress(cfg *DecompressConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = DefaultDecompressConfig()
	}

	allowed := make(map[string]bool, len(cfg.AllowedEncodings))
	for _, enc := range cfg.AllowedEncodings {
		allowed[strings.ToLower(enc)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			encoding := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding")))
			if encoding == "" || encoding == "identity" {
				next.ServeHTTP(w, r)
				return
			}

			requestID := GetRequestID(r.Context())
			if !allowed[encoding] {
				apierror.New(http.StatusUnsupportedMediaType, apierror.CodeBadRequest,
					fmt.Sprintf("unsupported Content-Encoding: %s", encoding)).WriteJSON(w, requestID)
				return
			}

			body, err := inflate(r.Body, encoding, cfg)
			if err != nil {
				if errors.Is(err, errDecompressedTooLarge) {
					apierror.PayloadTooLarge().WriteJSON(w, requestID)
					return
				}
				apierror.BadRequest("invalid compressed request body").WriteJSON(w, requestID)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			r.Header.Del("Content-Encoding")

			next.ServeHTTP(w, r)
		})
	}
}

// inflate decompresses body, enforcing the size and ratio limits while
// reading.
func inflate(body io.ReadCloser, encoding string, cfg *DecompressConfig) ([]byte, error) {
	defer body.Close()

	compressed, err := io.ReadAll(io.LimitReader(body, cfg.MaxCompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("read compressed body: %w", err)
	}
	if int64(len(compressed)) > cfg.MaxCompressedSize {
		return nil, errDecompressedTooLarge
	}
	if len(compressed) == 0 {
		return []byte{}, nil
	}

	var reader io.Reader
	switch encoding {
	case "gzip":
		gr, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gr.Close()
		reader = gr
	case "zstd":
		//nolint:gosec // MaxDecompressedSize is positive
		zr, err := zstd.NewReader(bytes.NewReader(compressed),
			zstd.WithDecoderMaxMemory(uint64(cfg.MaxDecompressedSize)),
			zstd.WithDecoderConcurrency(1),
		)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		reader = zr
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}

	limit := cfg.MaxDecompressedSize
	if byRatio := int64(float64(len(compressed)) * cfg.MaxCompressionRatio); cfg.MaxCompressionRatio > 0 && byRatio < limit {
		limit = byRatio
	}

	var out bytes.Buffer
	n, err := io.Copy(&out, io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if n > limit {
		return nil, errDecompressedTooLarge
	}
	return out.Bytes(), nil
}
