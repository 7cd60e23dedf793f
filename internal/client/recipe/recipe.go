// Package recipe turns the user's parameters into the generator request.
package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
)

// Multipart field names expected by the generator.
const (
	FieldFile    = "file"
	FieldOptions = "options_str"
)

// WallSegment is one concentric ring: a thickness and an extrusion height.
type WallSegment struct {
	Thickness float64 `json:"thickness"`
	Height    float64 `json:"height"`
}

// Request is the options document sent alongside the image.
type Request struct {
	TargetSize      float64       `json:"target_size"`
	MinThickness    float64       `json:"min_thickness"`
	StampHeightHigh float64       `json:"stamp_height_high"`
	StampHeightLow  float64       `json:"stamp_height_low"`
	OutputMode      int           `json:"output_option"`
	WallSegments    []WallSegment `json:"ring_config"`
}

// Compile builds the request for mode and p. It never fails: every numeric
// field is coerced, so malformed input becomes 0.
//
// Segment order is fixed: stamp wall (or a zero placeholder), gap (both
// only), then blade, support and base when the mode has a cutter.
func Compile(mode models.Mode, p models.Parameters) Request {
	segs := make([]WallSegment, 0, 5)

	if mode.HasStamp() {
		segs = append(segs, WallSegment{Thickness: p.Wall.Offset.Float(), Height: p.Wall.Extrude.Float()})
	} else {
		segs = append(segs, WallSegment{})
	}
	if mode == models.ModeBoth {
		segs = append(segs, WallSegment{Thickness: p.Gap.Float()})
	}
	if mode.HasCutter() {
		for _, l := range []models.CutterLayer{p.Blade, p.Support, p.Base} {
			segs = append(segs, WallSegment{Thickness: l.Thickness.Float(), Height: l.Depth.Float()})
		}
	}

	return Request{
		TargetSize:      p.Size.Float(),
		MinThickness:    p.MinLineThickness.Float(),
		StampHeightHigh: p.ProtrusionHeight.Float(),
		StampHeightLow:  p.DepressionHeight.Float(),
		OutputMode:      outputCode(mode),
		WallSegments:    segs,
	}
}

func outputCode(m models.Mode) int {
	switch m {
	case models.ModeCutterOnly:
		return 2
	case models.ModeStampOnly:
		return 3
	default:
		return 1
	}
}

// Encode writes req and image as a multipart/form-data body.
func Encode(req Request, image models.Blob) (io.Reader, string, error) {
	opts, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("marshal options: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldFile, fileName(image)))
	ct := image.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(FieldOptions, string(opts)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func fileName(b models.Blob) string {
	if b.Name == "" {
		return "image"
	}
	return b.Name
}
