package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/JaimeStill/document-context/pkg/image"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/invoke"
)

// photoContext identifies the item under analysis to the vision model.
// Narratives stay out: the analysis describes what is visible, not what the
// narrative team wrote.
type photoContext struct {
	EvidenceID string   `json:"evidence_id"`
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags,omitempty"`
	Pages      int      `json:"pages,omitempty"`
}

// analyzePhotos runs vision analysis over every evidence attachment. Items
// are processed concurrently under a bounded worker count; any item failing
// fails the node. Sessions without attachments still stop at the photo
// checkpoint so the reviewer confirms nothing was missed.
func analyzePhotos(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	items := attachmentItems(s.Evidence)
	if len(items) == 0 {
		return suspend(state.Update{}, state.ApprovalPhotoReview), nil
	}

	tempDir, err := os.MkdirTemp("", "byline-photos-")
	if err != nil {
		return state.Update{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	analyses := make([]state.PhotoAnalysis, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(items)))

	for i, item := range items {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			images, err := materializeAttachment(gctx, rt, item, tempDir)
			if err != nil {
				return fmt.Errorf("%s: %w", item.ID, err)
			}

			analysis, err := analyzeAttachment(gctx, rt, item, images)
			if err != nil {
				return fmt.Errorf("%s: %w", item.ID, err)
			}

			analyses[i] = analysis
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return state.Update{}, fmt.Errorf("analyze photos: %w", err)
	}

	byID := make(map[string]state.PhotoAnalysis, len(analyses))
	for _, a := range analyses {
		byID[a.EvidenceID] = a
	}

	return suspend(state.Update{PhotoAnalyses: byID}, state.ApprovalPhotoReview), nil
}

// materializeAttachment downloads an item's attachment and returns it as
// one or more image data URIs: one for a direct image, one per page for a
// PDF dossier.
func materializeAttachment(ctx context.Context, rt *Runtime, item evidence.Item, tempDir string) ([]string, error) {
	blob, err := rt.Storage.Download(ctx, item.Attachment.Key)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	defer blob.Body.Close()

	if item.IsImage() {
		data, err := io.ReadAll(blob.Body)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		return []string{imageDataURI(data, item.Attachment.ContentType)}, nil
	}

	return renderPDFPages(rt, blob.Body, item, tempDir)
}

// renderPDFPages rasterizes the pages of a PDF attachment to PNG via
// ImageMagick. pdfcpu reports the page count up front; dossiers over the
// configured cap render only their leading pages. Pages render
// sequentially; concurrency is bounded per item, not per page.
func renderPDFPages(rt *Runtime, body io.Reader, item evidence.Item, tempDir string) ([]string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("count pdf pages: %w", err)
	}

	if limit := rt.Config.MaxDossierPages; count > limit {
		rt.Logger.Warn(
			"dossier truncated",
			"evidence_id", item.ID,
			"pages", count,
			"limit", limit,
		)
		count = limit
	}

	pdfPath := filepath.Join(tempDir, evidence.Slug(item.ID)+".pdf")
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	pdfDoc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer pdfDoc.Close()

	renderer, err := image.NewImageMagickRenderer(config.DefaultImageConfig())
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	uris := make([]string, 0, count)
	for n := 1; n <= count; n++ {
		page, err := pdfDoc.ExtractPage(n)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", n, err)
		}

		img, err := page.ToImage(renderer, nil)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", n, err)
		}

		uri, err := encoding.EncodeImageDataURI(img, document.PNG)
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", n, err)
		}
		uris = append(uris, uri)
	}

	return uris, nil
}

func analyzeAttachment(ctx context.Context, rt *Runtime, item evidence.Item, images []string) (state.PhotoAnalysis, error) {
	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StagePhoto, photoContext{
		EvidenceID: item.ID,
		Kind:       item.Kind,
		Title:      item.Title,
		Tags:       item.Tags,
		Pages:      len(images),
	}, nil)
	if err != nil {
		return state.PhotoAnalysis{}, err
	}

	raw, err := invoke.Generate[json.RawMessage](ctx, rt.Invoker, invoke.Request{
		Prompt: prompt,
		Tier:   invoke.TierMedium,
		Schema: string(schemas.PhotoAnalysis),
		Images: images,
	})
	if err != nil {
		return state.PhotoAnalysis{}, err
	}

	res, err := rt.Validator.Validate(schemas.PhotoAnalysis, raw)
	if err != nil {
		return state.PhotoAnalysis{}, fmt.Errorf("validate %s: %w", schemas.PhotoAnalysis, err)
	}
	if !res.Valid {
		return state.PhotoAnalysis{}, fmt.Errorf("%w: %s", ErrContract, strings.Join(res.Messages(), "; "))
	}

	var analysis state.PhotoAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return state.PhotoAnalysis{}, fmt.Errorf("decode photo analysis: %w", err)
	}

	// The map key must match the item regardless of what the model echoed.
	analysis.EvidenceID = item.ID
	return analysis, nil
}

func attachmentItems(items []evidence.Item) []evidence.Item {
	var out []evidence.Item
	for _, item := range items {
		if item.IsImage() || item.IsPDF() {
			out = append(out, item)
		}
	}
	return out
}

func workerCount(n int) int {
	return max(min(runtime.NumCPU(), n), 1)
}

// imageDataURI builds a data URI from stored bytes and their recorded
// content type. Direct attachments keep whatever format they were uploaded
// in; only PDF page renders are format-fixed.
func imageDataURI(data []byte, contentType string) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
