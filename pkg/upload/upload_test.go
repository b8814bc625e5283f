package upload_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/upload"
)

func newPipeline(t *testing.T, size int) (*upload.Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	disk, err := storage.NewLocalDisk(root, "/uploads")
	require.NoError(t, err)
	return upload.New(disk, upload.Options{Root: root, Size: size, Logger: logger.Discard()}), root
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// tempFiles lists staging files left under root.
func tempFiles(t *testing.T, root string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, "temp_*"))
	require.NoError(t, err)
	return matches
}

func allFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	require.NoError(t, filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			out = append(out, p)
		}
		return err
	}))
	return out
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Blue Shirt":            "blue-shirt",
		"  Blue   Shirt  ":      "blue-shirt",
		"Men's T-Shirt (XL)!":   "mens-t-shirt-xl",
		"a -- b":                "a-b",
		"Already-slugged":       "already-slugged",
		"under_score kept":      "under_score-kept",
		"!!!":                   "",
		"Café Crème":            "café-crème",
		"tab\tand\nnewline":     "tab-and-newline",
		"trailing dash -":       "trailing-dash",
		"-lead":                 "lead",
		"--x--":                 "x",
		"Shirt!-":               "shirt",
	}
	for in, want := range cases {
		assert.Equal(t, want, upload.Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugifyProperties(t *testing.T) {
	valid := regexp.MustCompile(`^[\p{Ll}\p{N}_-]*$`)
	for _, in := range []string{"Hello World", "A&B / C", "  x  ", "Ünïcödé Náme", "--x--", "- dash -", "Shirt!-"} {
		out := upload.Slugify(in)
		assert.Regexp(t, valid, out)
		assert.NotContains(t, out, " ")
		assert.NotContains(t, out, "--")
		assert.False(t, strings.HasPrefix(out, "-"), "leading dash in %q", out)
		assert.False(t, strings.HasSuffix(out, "-"), "trailing dash in %q", out)
		assert.Equal(t, out, upload.Slugify(out), "idempotent for %q", in)
	}
}

func TestDefaultAllowSet(t *testing.T) {
	p, _ := newPipeline(t, 8)
	assert.True(t, p.Allowed("a.png"))
	assert.True(t, p.Allowed("a.JPG"))
	assert.True(t, p.Allowed("archive.tar.jpeg"))
	assert.False(t, p.Allowed("a.gif"))
	assert.False(t, p.Allowed("png"))
	assert.False(t, p.Allowed(""))
}

func TestSaveProducesSquareJPEG(t *testing.T) {
	p, root := newPipeline(t, 64)

	rel, err := p.Save(context.Background(), bytes.NewReader(jpegBytes(t, 200, 100)), "Photo.JPG", "Blue Shirt", "base")
	require.NoError(t, err)
	assert.Regexp(t, `^blue-shirt/base-[0-9a-f]{6}\.jpg$`, rel)

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 64, cfg.Height)

	assert.Empty(t, tempFiles(t, root))
}

func TestSaveProducesOpaqueSquarePNG(t *testing.T) {
	p, root := newPipeline(t, 32)

	rel, err := p.Save(context.Background(), bytes.NewReader(pngBytes(t, 50, 90)), "logo.png", "Logo", "additional")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "logo/additional-"))

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	img, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())

	_, _, _, a := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Empty(t, tempFiles(t, root))
}

func TestSaveUpscalesSmallImages(t *testing.T) {
	p, root := newPipeline(t, 40)
	rel, err := p.Save(context.Background(), bytes.NewReader(pngBytes(t, 7, 3)), "tiny.png", "tiny", "base")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
}

func TestSaveRejectsBadExtension(t *testing.T) {
	p, root := newPipeline(t, 16)

	rel, err := p.Save(context.Background(), bytes.NewReader(pngBytes(t, 10, 10)), "evil.gif", "x", "base")
	assert.ErrorIs(t, err, upload.ErrExtension)
	assert.Empty(t, rel)
	assert.Empty(t, allFiles(t, root))
}

func TestSaveRequiresFile(t *testing.T) {
	p, root := newPipeline(t, 16)

	_, err := p.Save(context.Background(), nil, "a.png", "x", "base")
	assert.ErrorIs(t, err, upload.ErrNoFile)
	_, err = p.Save(context.Background(), bytes.NewReader(nil), "", "x", "base")
	assert.ErrorIs(t, err, upload.ErrNoFile)
	assert.Empty(t, allFiles(t, root))
}

func TestSaveUndecodableLeavesNothing(t *testing.T) {
	p, root := newPipeline(t, 16)

	rel, err := p.Save(context.Background(), strings.NewReader("not an image"), "fake.jpg", "x", "base")
	require.Error(t, err)
	assert.False(t, errors.Is(err, upload.ErrExtension))
	assert.Empty(t, rel)
	assert.Empty(t, allFiles(t, root))
}

func TestSaveEmptySlugFallsBack(t *testing.T) {
	p, _ := newPipeline(t, 8)
	rel, err := p.Save(context.Background(), bytes.NewReader(pngBytes(t, 4, 4)), "a.png", "???", "base")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "product/"), rel)
}

func TestCustomAllowSet(t *testing.T) {
	disk, err := storage.NewLocalDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)
	p := upload.New(disk, upload.Options{Allowed: []string{".PNG"}})

	assert.True(t, p.Allowed("x.png"))
	assert.False(t, p.Allowed("x.jpg"))
}

func TestURLComesFromDisk(t *testing.T) {
	p, _ := newPipeline(t, 8)
	assert.Equal(t, "/uploads/blue-shirt/base-a1b2c3.jpg", p.URL("blue-shirt/base-a1b2c3.jpg"))
}

// pngHeader returns a PNG that declares w×h grayscale pixels but carries no
// image data.
func pngHeader(w, h uint32) []byte {
	chunk := func(typ string, data []byte) []byte {
		var b bytes.Buffer
		_ = binary.Write(&b, binary.BigEndian, uint32(len(data)))
		b.WriteString(typ)
		b.Write(data)
		_ = binary.Write(&b, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
		return b.Bytes()
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; color type 0 is grayscale

	out := []byte("\x89PNG\r\n\x1a\n")
	out = append(out, chunk("IHDR", ihdr)...)
	return append(out, chunk("IEND", nil)...)
}

func TestSaveRefusesOversizedDimensions(t *testing.T) {
	p, root := newPipeline(t, 16)

	rel, err := p.Save(context.Background(), bytes.NewReader(pngHeader(30000, 30000)), "huge.png", "x", "base")
	assert.ErrorIs(t, err, upload.ErrTooLarge)
	assert.Empty(t, rel)
	assert.Empty(t, allFiles(t, root))
}

func TestSaveHonoursMaxPixels(t *testing.T) {
	root := t.TempDir()
	disk, err := storage.NewLocalDisk(root, "/uploads")
	require.NoError(t, err)
	p := upload.New(disk, upload.Options{Root: root, Size: 8, MaxPixels: 100, Logger: logger.Discard()})

	_, err = p.Save(context.Background(), bytes.NewReader(pngBytes(t, 11, 10)), "a.png", "x", "base")
	assert.ErrorIs(t, err, upload.ErrTooLarge)
	assert.Empty(t, allFiles(t, root))

	rel, err := p.Save(context.Background(), bytes.NewReader(pngBytes(t, 10, 10)), "a.png", "x", "base")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(rel)))
	assert.Empty(t, tempFiles(t, root))
}

func TestRemove(t *testing.T) {
	p, root := newPipeline(t, 8)
	ctx := context.Background()
	rel, err := p.Save(ctx, bytes.NewReader(pngBytes(t, 4, 4)), "a.png", "gone", "base")
	require.NoError(t, err)

	require.NoError(t, p.Remove(ctx, rel))
	assert.NoFileExists(t, filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, p.Remove(ctx, rel))
	require.NoError(t, p.Remove(ctx, ""))
}

func TestSquareCropsCenter(t *testing.T) {
	// Left third red, middle third green, right third blue.
	src := image.NewRGBA(image.Rect(0, 0, 30, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 30; x++ {
			c := color.RGBA{A: 255}
			switch {
			case x < 10:
				c.R = 255
			case x < 20:
				c.G = 255
			default:
				c.B = 255
			}
			src.Set(x, y, c)
		}
	}
	out := upload.Square(src, 10)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	c := out.NRGBAAt(5, 5)
	assert.Equal(t, uint8(255), c.G)
	assert.Equal(t, uint8(0), c.R)
	assert.Equal(t, uint8(0), c.B)
}
