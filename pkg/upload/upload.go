// Package upload turns raw product photo uploads into square, compressed
// images on a storage disk.
//
//	p := upload.New(disk, upload.Options{Root: config.UploadRoot(), Size: 800})
//	rel, err := p.Save(ctx, file, header.Filename, upload.Slugify(product.Name), "base")
//	// rel == "blue-shirt/base-a1b2c3.jpg"
package upload

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

var (
	// ErrNoFile means the form part was absent or had no filename.
	ErrNoFile = errors.New("upload: no file")
	// ErrExtension means the filename's extension is not allowed.
	ErrExtension = errors.New("upload: extension not allowed")
	// ErrTooLarge means the image header declares more pixels than the
	// pipeline will decode.
	ErrTooLarge = errors.New("upload: image dimensions too large")
)

const (
	DefaultSize      = 800
	// DefaultMaxPixels caps width*height of a decoded upload.
	DefaultMaxPixels = 89_478_485

	jpegQuality   = 95
	fallbackSlug  = "product"
	randomHexSize = 3 // bytes, six hex characters
)

// DefaultExtensions is the allow-set used when Options.Allowed is empty.
var DefaultExtensions = []string{"png", "jpg", "jpeg"}

// Options configures a Pipeline.
type Options struct {
	Root    string   // local staging directory
	Size    int      // output edge length in pixels
	Allowed []string // lower-case extensions without the dot
	// MaxPixels refuses images whose header declares more pixels.
	// DefaultMaxPixels when zero.
	MaxPixels int64
	Logger    *slog.Logger
}

// Pipeline validates, crops, resizes and stores images. It holds no mutable
// state, so one Pipeline can serve concurrent uploads.
type Pipeline struct {
	root      string
	size      int
	maxPixels int64
	allowed   map[string]struct{}
	disk      storage.Disk
	log       *slog.Logger
}

// New builds a pipeline writing through disk.
func New(disk storage.Disk, opts Options) *Pipeline {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if len(opts.Allowed) == 0 {
		opts.Allowed = DefaultExtensions
	}
	if opts.Root == "" {
		opts.Root = os.TempDir()
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	allowed := make(map[string]struct{}, len(opts.Allowed))
	for _, ext := range opts.Allowed {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Pipeline{
		root:      opts.Root,
		size:      opts.Size,
		maxPixels: opts.MaxPixels,
		allowed:   allowed,
		disk:      disk,
		log:       opts.Logger,
	}
}

// URL returns the address a browser loads the stored image rel from.
func (p *Pipeline) URL(rel string) string { return p.disk.URL(rel) }

func (p *Pipeline) logger(ctx context.Context) *slog.Logger {
	if p.log != nil {
		return p.log
	}
	return logger.WithCtx(ctx)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	dashOrWhit = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts text to a URL-friendly directory name: lower case, non-word
// characters removed, runs of spaces and dashes collapsed to one dash. The
// result never starts or ends with a dash.
func Slugify(text string) string {
	text = strings.ToLower(text)
	text = strings.TrimSpace(nonWord.ReplaceAllString(text, ""))
	return strings.Trim(dashOrWhit.ReplaceAllString(text, "-"), "-")
}

// ext returns the lower-case extension after the last dot, or "".
func ext(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Allowed reports whether filename passes this pipeline's allow-set.
func (p *Pipeline) Allowed(filename string) bool {
	e := ext(filename)
	if e == "" {
		return false
	}
	_, ok := p.allowed[e]
	return ok
}

func randomHex() (string, error) {
	b := make([]byte, randomHexSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ─── Save ─────────────────────────────────────────────────────────────────────

// Save stores one uploaded image and returns its disk-relative path
// "{slug}/{prefix}-{6hex}.{ext}". Every failure is logged and counted; the
// staged temp file never outlives the call.
func (p *Pipeline) Save(ctx context.Context, file io.Reader, filename, slug, prefix string) (string, error) {
	start := time.Now()
	rel, err := p.save(ctx, file, filename, slug, prefix)

	switch {
	case err == nil:
		metrics.ImagesProcessed.WithLabelValues("stored").Inc()
		metrics.ImageDuration.Observe(time.Since(start).Seconds())
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrExtension), errors.Is(err, ErrTooLarge):
		metrics.ImagesProcessed.WithLabelValues("rejected").Inc()
		p.logger(ctx).Warn("image rejected", "filename", filename, "error", err)
	default:
		metrics.ImagesProcessed.WithLabelValues("failed").Inc()
		p.logger(ctx).Error("image processing failed", "filename", filename, "error", err)
	}
	return rel, err
}

func (p *Pipeline) save(ctx context.Context, file io.Reader, filename, slug, prefix string) (string, error) {
	if file == nil || filename == "" {
		return "", ErrNoFile
	}
	if !p.Allowed(filename) {
		return "", fmt.Errorf("%w: %q", ErrExtension, filename)
	}
	e := ext(filename)

	if slug = Slugify(slug); slug == "" {
		slug = fallbackSlug
	}
	suffix, err := randomHex()
	if err != nil {
		return "", fmt.Errorf("upload: random name: %w", err)
	}
	name := fmt.Sprintf("%s-%s.%s", prefix, suffix, e)

	tmp, err := p.stage(file, name)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	out, err := p.transform(tmp, e)
	if err != nil {
		return "", err
	}

	rel := path.Join(slug, name)
	if err := p.disk.Put(ctx, rel, out); err != nil {
		return "", fmt.Errorf("upload: store %s: %w", rel, err)
	}
	return rel, nil
}

// stage copies the upload to {root}/temp_{name}.
func (p *Pipeline) stage(file io.Reader, name string) (string, error) {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return "", fmt.Errorf("upload: mkdir %s: %w", p.root, err)
	}
	tmp := filepath.Join(p.root, "temp_"+name)
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("upload: stage: %w", err)
	}
	if _, err := io.Copy(f, file); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("upload: stage: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("upload: stage: %w", err)
	}
	return tmp, nil
}

// transform decodes the staged file, center-crops it to a square, resizes
// it and encodes it in the format named by e. The header is checked against
// maxPixels before any pixel data is read.
func (p *Pipeline) transform(tmp, e string) ([]byte, error) {
	f, err := os.Open(tmp)
	if err != nil {
		return nil, fmt.Errorf("upload: open staged file: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("upload: decode header: %w", err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > p.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, p.maxPixels)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("upload: rewind staged file: %w", err)
	}
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("upload: decode: %w", err)
	}

	dst := Square(src, p.size)

	var buf bytes.Buffer
	switch e {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("upload: encode %s: %w", e, err)
	}
	return buf.Bytes(), nil
}

// Square returns src flattened to opaque RGB, center-cropped to its shorter
// side and scaled to size×size with Catmull-Rom resampling.
func Square(src image.Image, size int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	m := min(w, h)
	left := b.Min.X + (w-m)/2
	top := b.Min.Y + (h-m)/2
	crop := image.Rect(left, top, left+m, top+m)

	// Alpha is dropped, not composited, the same as a plain RGB conversion.
	rgb := image.NewNRGBA(image.Rect(0, 0, m, m))
	for y := 0; y < m; y++ {
		for x := 0; x < m; x++ {
			c := color.NRGBAModel.Convert(src.At(crop.Min.X+x, crop.Min.Y+y)).(color.NRGBA)
			c.A = 0xff
			rgb.SetNRGBA(x, y, c)
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), rgb, rgb.Bounds(), draw.Src, nil)
	return dst
}

// Remove deletes a stored image. Missing files are not an error.
func (p *Pipeline) Remove(ctx context.Context, rel string) error {
	if rel == "" {
		return nil
	}
	if err := p.disk.Delete(ctx, rel); err != nil {
		p.logger(ctx).Warn("image delete failed", "path", rel, "error", err)
		return err
	}
	return nil
}
