package notify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoders for the formats feed images arrive in
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxDownloadBytes caps a single image fetch. Recompression needs the
// complete payload, so this sits far above any inline-size limit; anything
// bigger is rejected rather than truncated.
const maxDownloadBytes = 32 << 20

// urlVariants returns the rewrites to try before the original URL. Some
// hosts reject the raw origin URL in automated fetches but serve the resized
// variants.
func urlVariants(raw string) []string {
	return []string{
		raw + "@1036w_!web-dynamic.jpg",
		raw + "@640w_640h_1c.webp",
		raw,
	}
}

// download fetches the first variant that responds with 200 and a body.
func download(ctx context.Context, httpc *http.Client, urls []string, maxBytes int64) ([]byte, error) {
	var lastErr error
	for _, u := range urls {
		data, err := downloadOne(ctx, httpc, u, maxBytes)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func downloadOne(ctx context.Context, httpc *http.Client, url string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Referer", "https://www.bilibili.com/")

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		// a truncated image is worse than no image, it corrupts every
		// downstream tier
		return nil, fmt.Errorf("image %s exceeds %d bytes", url, maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image body from %s", url)
	}
	return data, nil
}

// shrink re-encodes an image to JPEG, downscaling to maxWidth when wider.
// Used when the raw bytes would exceed the inline-payload size limit.
func shrink(data []byte, maxWidth, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	if maxWidth > 0 && bounds.Dx() > maxWidth {
		h := bounds.Dy() * maxWidth / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// saveScratch writes raw image bytes to a scratch file and returns its path.
func saveScratch(dir string, data []byte) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "biliwatch-img-*")
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	return filepath.Abs(f.Name())
}
