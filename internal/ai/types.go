package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/prompt"
)

// ErrDisabled is returned when no generation backend is configured.
var ErrDisabled = errors.New("ai generator disabled")

// Generator is the text-generation collaborator the copy engine consumes.
type Generator interface {
	Enabled() bool
	Generate(ctx context.Context, req GenerateRequest) ([]candidate.Raw, error)
	Regenerate(ctx context.Context, instructions string, target candidate.Candidate) (candidate.Raw, error)
}

// Image is the visual context attached to a generation request.
type Image struct {
	Data        []byte
	ContentType string
}

// DataURL encodes the image inline so no external storage is needed.
func (i Image) DataURL() string {
	ct := strings.TrimSpace(i.ContentType)
	if ct == "" {
		ct = "image/png"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// GenerateRequest pairs the prompt brief with an optional image.
type GenerateRequest struct {
	Brief         prompt.Brief
	Image         *Image
	ModelOverride string
}
