package merge

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
)

// maxCoverWidth caps embedded cover art. Player UIs render small
// thumbnails, so anything larger just bloats the container.
const maxCoverWidth = 600

var coverClient = &http.Client{Timeout: 30 * time.Second}

// fetchCover downloads the cover image, downscales it if oversized and
// writes it as JPEG into dir. The caller treats any error here as
// non-fatal.
func fetchCover(url, dir string) (string, error) {
	resp, err := coverClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cover art: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover art fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not decode cover art: %w", err)
	}
	if img.Bounds().Dx() > maxCoverWidth {
		img = resize.Resize(maxCoverWidth, 0, img, resize.Lanczos3)
	}

	path := filepath.Join(dir, "cover.jpg")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("could not encode cover art: %w", err)
	}
	return path, nil
}
