package core

import (
	"context"
	"fmt"
	"time"

	"github.com/agenthands/vectordb-crud/internal/artifact"
	"github.com/agenthands/vectordb-crud/internal/core/model"
)

const (
	defaultAudioType = "audio/mpeg"
	defaultImageType = "image/jpeg"
)

func (s *Service) Summarize(ctx context.Context, id string) (model.Summary, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return model.Summary{}, err
	}

	start := time.Now()
	sum, err := s.Inference.Summarizer.Summarize(ctx, rec.Description, s.SummaryMaxLength)
	s.observe("inference", "summarize", start, err)
	if err != nil {
		return model.Summary{}, s.inferenceFailure(ctx, "summarization", id, err)
	}
	if sum.SummaryText == "" {
		return model.Summary{}, s.inferenceFailure(ctx, "summarization", id, ErrEmptyResult)
	}
	return sum, nil
}

// TextToSpeech synthesizes the record description and persists the audio
// under a name unique to this call.
func (s *Service) TextToSpeech(ctx context.Context, id string) (model.Media, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return model.Media{}, err
	}

	start := time.Now()
	media, err := s.Inference.Speech.Synthesize(ctx, rec.Description)
	s.observe("inference", "synthesize", start, err)
	if err != nil {
		return model.Media{}, s.inferenceFailure(ctx, "speech", id, err)
	}
	if len(media.Data) == 0 {
		return model.Media{}, s.inferenceFailure(ctx, "speech", id, ErrEmptyResult)
	}
	if media.ContentType == "" {
		media.ContentType = defaultAudioType
	}

	a, err := s.persist(ctx, "audio", id, media)
	if err != nil {
		return model.Media{}, fmt.Errorf("failed to store audio: %w", err)
	}
	media.Artifact = &a
	return media, nil
}

// TextToImage renders the record description. Failing to persist the image
// is logged and does not fail the call.
func (s *Service) TextToImage(ctx context.Context, id string) (model.Media, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return model.Media{}, err
	}

	start := time.Now()
	media, err := s.Inference.Image.GenerateImage(ctx, rec.Description)
	s.observe("inference", "generate_image", start, err)
	if err != nil {
		return model.Media{}, s.inferenceFailure(ctx, "image", id, err)
	}
	if len(media.Data) == 0 {
		return model.Media{}, s.inferenceFailure(ctx, "image", id, ErrEmptyResult)
	}
	if media.ContentType == "" {
		media.ContentType = defaultImageType
	}

	a, err := s.persist(ctx, "images", id, media)
	if err != nil {
		s.Logger.WarnContext(ctx, "failed to store image", "record_id", id, "error", err)
		return media, nil
	}
	media.Artifact = &a
	return media, nil
}

func (s *Service) Classify(ctx context.Context, id string) ([]model.Label, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	labels, err := s.Inference.Classifier.Classify(ctx, rec.Description)
	s.observe("inference", "classify", start, err)
	if err != nil {
		return nil, s.inferenceFailure(ctx, "classification", id, err)
	}
	if len(labels) == 0 {
		return nil, s.inferenceFailure(ctx, "classification", id, ErrEmptyResult)
	}
	return labels, nil
}

func (s *Service) persist(ctx context.Context, kind, id string, media model.Media) (model.Artifact, error) {
	name := artifact.Name(kind, id, media.ContentType)

	start := time.Now()
	a, err := s.Artifacts.Put(ctx, name, media.ContentType, media.Data)
	s.observe("artifact", "put", start, err)
	if err != nil {
		return model.Artifact{}, err
	}

	s.Logger.InfoContext(ctx, "artifact stored", "record_id", id, "name", a.Name, "size", a.Size)
	return a, nil
}
