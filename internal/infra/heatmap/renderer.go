// Package heatmap renders risk scores into a PNG artifact. One row of
// cells, one per category, colored on a white-to-red ramp. The image is
// written atomically under the static dir (temp file + rename, so
// concurrent requests for the same subject are last-writer-wins without
// corruption) and optionally mirrored to the artifact store.
package heatmap

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bryanwahyu/clinassist/internal/domain/analysis"
)

const (
	cellW   = 80
	cellH   = 80
	border  = 2
	urlBase = "/static/heatmaps"
)

// Uploader mirrors the artifact to remote storage and returns its
// public URL.
type Uploader interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Renderer struct {
	Dir   string   // local static/heatmaps directory
	Store Uploader // optional
	Log   *zap.SugaredLogger
}

func NewRenderer(dir string, store Uploader, log *zap.SugaredLogger) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create heatmap dir: %w", err)
	}
	return &Renderer{Dir: dir, Store: store, Log: log}, nil
}

// Render implements analysis.Renderer. Scores arrive validated and
// clamped; this only paints and places the artifact. The file name is
// derived from the subject id so re-rendering replaces the previous
// image.
func (r *Renderer) Render(ctx context.Context, subjectID string, risks map[string]float64) (*analysis.Artifact, error) {
	data, err := encodePNG(risks)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("heatmap_%s.png", subjectID)
	path := filepath.Join(r.Dir, name)
	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}

	url := urlBase + "/" + name
	if r.Store != nil {
		remote, uerr := r.Store.UploadBytes(ctx, "heatmaps/"+name, data, "image/png")
		if uerr != nil {
			// local artifact already exists; keep serving it
			r.Log.Warnw("heatmap upload failed, serving local copy", "key", name, "error", uerr)
		} else {
			url = remote
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &analysis.Artifact{
		Path:   abs,
		URL:    url,
		Base64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

func encodePNG(risks map[string]float64) ([]byte, error) {
	cats := analysis.RiskCategories
	w := len(cats)*cellW + (len(cats)+1)*border
	h := cellH + 2*border

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for i, cat := range cats {
		x0 := border + i*(cellW+border)
		cell := image.Rect(x0, border, x0+cellW, border+cellH)
		draw.Draw(img, cell, image.NewUniform(rampColor(risks[cat])), image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// rampColor interpolates from near-white to dark red as v goes 0 -> 1.
func rampColor(v float64) color.RGBA {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	lerp := func(a, b float64) uint8 { return uint8(a + (b-a)*v) }
	return color.RGBA{
		R: lerp(255, 103),
		G: lerp(245, 0),
		B: lerp(240, 13),
		A: 255,
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".heatmap-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
