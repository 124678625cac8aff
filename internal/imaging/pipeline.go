// Package imaging fetches external images, bounds their dimensions,
// re-encodes them as JPEG and rehosts them. Every failure degrades to the
// original URL.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/logger"
	"github.com/samvad-hq/samvad-news-importer/pkg/httpclient"
	"github.com/samvad-hq/samvad-news-importer/pkg/objectstore"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBytes     = 10 << 20
	DefaultMaxDimension = 1920
	DefaultQuality      = 85
	// DefaultMaxPixels bounds decoded size; a 40 MP RGBA frame is 160 MiB.
	DefaultMaxPixels = 40_000_000

	keyPrefix = "news"
)

// Options bound the work done per image.
type Options struct {
	Timeout      time.Duration
	MaxBytes     int
	MaxDimension int
	Quality      int
	MaxPixels    int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	return o
}

// Result describes where the image ended up.
type Result struct {
	URL      string
	Rehosted bool
	Credit   string
	Width    int
	Height   int
	// Warning is set whenever URL is the original external address.
	Warning string
}

// Pipeline rehosts images through an Uploader.
type Pipeline struct {
	client   httpclient.Client
	uploader objectstore.Uploader
	opts     Options
	log      logger.Logger

	now     func() time.Time
	newName func() string
}

// NewPipeline wires the fetch and upload collaborators.
func NewPipeline(client httpclient.Client, uploader objectstore.Uploader, opts Options, log logger.Logger) *Pipeline {
	return &Pipeline{
		client:   client,
		uploader: uploader,
		opts:     opts.withDefaults(),
		log:      logger.Ensure(log),
		now:      time.Now,
		newName:  uuid.NewString,
	}
}

// Acquire rehosts src, falling back to src itself on any failure.
func (p *Pipeline) Acquire(ctx context.Context, src string) Result {
	if src == "" {
		return Result{}
	}
	res, err := p.rehost(ctx, src)
	if err != nil {
		p.log.WarnObj("image rehost failed", "image", map[string]any{
			"url":   src,
			"error": err.Error(),
		})
		return Result{
			URL:     src,
			Warning: fmt.Sprintf("image kept at original url: %v", err),
		}
	}
	return res
}

func (p *Pipeline) rehost(ctx context.Context, src string) (Result, error) {
	data, err := p.fetch(ctx, src)
	if err != nil {
		return Result{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode image header: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(p.opts.MaxPixels) {
		return Result{}, fmt.Errorf("image %dx%d exceeds pixel budget of %d", cfg.Width, cfg.Height, p.opts.MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}
	img = Flatten(Constrain(img, p.opts.MaxDimension))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.opts.Quality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	key := p.objectKey()
	url, err := p.uploader.Upload(ctx, buf.Bytes(), key, "image/jpeg")
	if err != nil {
		return Result{}, fmt.Errorf("upload image: %w: %w", domain.ErrNetworkFailure, err)
	}

	b := img.Bounds()
	return Result{
		URL:      url,
		Rehosted: true,
		Credit:   ExtractCredit(data),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

func (p *Pipeline) fetch(ctx context.Context, src string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	headers := map[string]string{"Accept": "image/*"}
	var (
		resp httpclient.Response
		err  error
	)
	if lg, ok := p.client.(httpclient.LimitedGetter); ok {
		resp, err = lg.GetLimited(ctx, src, headers, int64(p.opts.MaxBytes))
	} else {
		resp, err = p.client.Get(ctx, src, headers)
	}
	if errors.Is(err, httpclient.ErrBodyTooLarge) {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w: %w", domain.ErrNetworkFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch image: %w: status %d", domain.ErrNetworkFailure, resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, errors.New("fetch image: empty body")
	}
	if len(body) > p.opts.MaxBytes {
		return nil, fmt.Errorf("fetch image: %d bytes exceeds limit of %d", len(body), p.opts.MaxBytes)
	}
	return body, nil
}

func (p *Pipeline) objectKey() string {
	now := p.now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%s.jpg", keyPrefix, now.Year(), int(now.Month()), p.newName())
}

// Constrain downscales img so its longest side is at most max, preserving
// aspect ratio. Smaller images are returned unchanged.
func Constrain(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}
	nw, nh := max, max
	if w >= h {
		nh = h * max / w
	} else {
		nw = w * max / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Flatten composites img onto an opaque white canvas so transparent pixels
// survive JPEG encoding as white. Opaque images are returned unchanged.
func Flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
