package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"github.com/purplearchive/purple-archive-server/apperrors"
)

// PageAnnotation is the OCR result of a single frame: the subtitle text and
// the player name read from their fixed screen regions.
type PageAnnotation struct {
	Description string `json:"description"`
	PlayerName  string `json:"playerName"`
}

// Annotator extracts per-frame text regions from ordered frame images.
type Annotator interface {
	AnnotateImages(ctx context.Context, images []image.Image) ([]PageAnnotation, error)
}

// Screen regions the captions appear in. Only text whose bounding box lies
// entirely inside an area counts towards that area's result.
type areaBound struct {
	x1, y1, x2, y2 int
}

var (
	subtitleArea = areaBound{95, 143, 673, 393}
	playerArea   = areaBound{21, 461, 627, 496}
)

const defaultLanguageHint = "ja"

// VisionAnnotator calls the Google Vision images:annotate REST endpoint with
// DOCUMENT_TEXT_DETECTION for every frame in a single batch request.
type VisionAnnotator struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewVisionAnnotator builds an annotator with an explicit request timeout so a
// hanging Vision call can never stall an upload indefinitely.
func NewVisionAnnotator(endpoint, apiKey string, timeout time.Duration) *VisionAnnotator {
	return &VisionAnnotator{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type visionAnnotateRequest struct {
	Image        visionImage        `json:"image"`
	Features     []visionFeature    `json:"features"`
	ImageContext visionImageContext `json:"imageContext"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionImageContext struct {
	LanguageHints []string `json:"languageHints"`
}

type visionResponse struct {
	Responses []visionAnnotateResponse `json:"responses"`
}

type visionAnnotateResponse struct {
	TextAnnotations []visionTextAnnotation `json:"textAnnotations"`
	Error           *visionStatus          `json:"error,omitempty"`
}

type visionTextAnnotation struct {
	Description  string             `json:"description"`
	BoundingPoly visionBoundingPoly `json:"boundingPoly"`
}

type visionBoundingPoly struct {
	Vertices []visionVertex `json:"vertices"`
}

type visionVertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type visionStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AnnotateImages OCRs every frame in one batch call and reduces the raw text
// annotations to the subtitle/player-name regions.
func (va *VisionAnnotator) AnnotateImages(ctx context.Context, images []image.Image) ([]PageAnnotation, error) {
	reqBody := visionRequest{Requests: make([]visionAnnotateRequest, 0, len(images))}
	for _, img := range images {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("failed to encode frame as jpeg: %w", err)
		}
		reqBody.Requests = append(reqBody.Requests, visionAnnotateRequest{
			Image:        visionImage{Content: base64.StdEncoding.EncodeToString(buf.Bytes())},
			Features:     []visionFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			ImageContext: visionImageContext{LanguageHints: []string{defaultLanguageHint}},
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vision request: %w", err)
	}

	url := va.endpoint
	if va.apiKey != "" {
		url += "?key=" + va.apiKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build vision request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := va.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.External("vision", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.External("vision", fmt.Errorf("annotate returned status %d", resp.StatusCode))
	}

	var parsed visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.External("vision", fmt.Errorf("failed to decode annotate response: %w", err))
	}
	if len(parsed.Responses) != len(images) {
		return nil, apperrors.External("vision",
			fmt.Errorf("annotate returned %d responses for %d images", len(parsed.Responses), len(images)))
	}

	result := make([]PageAnnotation, 0, len(parsed.Responses))
	for _, air := range parsed.Responses {
		if air.Error != nil {
			return nil, apperrors.External("vision",
				fmt.Errorf("annotate error %d: %s", air.Error.Code, air.Error.Message))
		}
		result = append(result, reduceAnnotations(air.TextAnnotations))
	}
	return result, nil
}

// reduceAnnotations collects region-bounded text fragments into a single page
// annotation. Subtitle fragments concatenate in reading order; the player name
// takes the last matching fragment. The full-image annotation Vision prepends
// never fits either region, so it drops out naturally.
func reduceAnnotations(annotations []visionTextAnnotation) PageAnnotation {
	var page PageAnnotation
	for _, text := range annotations {
		v := text.BoundingPoly.Vertices
		if len(v) != 4 {
			continue
		}
		switch {
		case within(v, subtitleArea):
			page.Description += text.Description
		case within(v, playerArea):
			page.PlayerName = text.Description
		}
	}
	return page
}

func within(v []visionVertex, area areaBound) bool {
	return v[0].X > area.x1 && v[0].Y > area.y1 && v[2].X < area.x2 && v[2].Y < area.y2
}
