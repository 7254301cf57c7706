package detector

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"

	"github.com/roadwatch/pothole-service/internal/domain"
)

// readImageSize decodes only the image header.
func readImageSize(path string) (domain.ImageSize, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.ImageSize{}, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return domain.ImageSize{}, fmt.Errorf("decode image header: %w", err)
	}

	return domain.ImageSize{Width: cfg.Width, Height: cfg.Height}, nil
}
