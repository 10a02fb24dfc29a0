package poster

import (
	"fmt"
	"path/filepath"
	"sync"

	"reelshelf/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp" // WebP format support
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

// InitVips starts libvips for poster validation. Call once at startup.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure logging before Startup so LOG_LEVEL applies to libvips too.
	level := vips.LogLevelError
	if logging.IsDebugEnabled() {
		level = vips.LogLevelInfo
	}
	vips.LoggingSettings(func(domain string, l vips.LogLevel, msg string) {
		switch l {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, level)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips has run.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsInitialized
}

// ImageInfo describes a decoded poster.
type ImageInfo struct {
	Width   int
	Height  int
	Decoder string
}

// Inspect decodes the image at path. libvips is used when initialized, with
// imaging as the fallback decoder.
func Inspect(path string) (ImageInfo, error) {
	if IsVipsAvailable() {
		ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
		if err == nil {
			defer ref.Close()
			return ImageInfo{Width: ref.Width(), Height: ref.Height(), Decoder: "vips"}, nil
		}
		logging.Debug("vips could not load %s: %v, trying imaging", filepath.Base(path), err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	return ImageInfo{Width: b.Dx(), Height: b.Dy(), Decoder: "imaging"}, nil
}
