package studio

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/demo"
	"github.com/velvet/backend/internal/infrastructure/storage"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// PublishToStore writes the model URL to the product's velvet.model_url
// metafield. Without a connected store the publish is simulated.
func (s *Service) PublishToStore(ctx context.Context, creds integration.Credentials, productID, modelURL string) (*generation.ActionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "studio", "publish_to_store")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.SpanAttrProductID, productID)

	if creds.Store.IsComplete() {
		if err := s.store.PublishModelURL(ctx, creds.Store, productID, modelURL); err != nil {
			s.log(ctx).Error("Failed to publish model to store",
				zap.String("shop", creds.Store.Domain),
				zap.String("product_id", productID),
				zap.Error(err),
			)
			s.metrics.RecordPublish(ctx, string(catalog.SourceShopify), telemetry.OutcomeFailure)
			return &generation.ActionResult{Success: false, Message: MessagePublishFailed}, nil
		}
		s.metrics.RecordPublish(ctx, string(catalog.SourceShopify), telemetry.OutcomeSuccess)
		return &generation.ActionResult{Success: true, Message: MessagePublishedReal}, nil
	}

	if err := demo.Wait(ctx, s.delays.Publish); err != nil {
		return nil, err
	}
	s.metrics.RecordPublish(ctx, string(catalog.SourceDemo), telemetry.OutcomeSuccess)
	return &generation.ActionResult{Success: true, Message: MessagePublishedSimulate}, nil
}

// SendCampaign triggers the 3D campaign event for a live store product.
// Demo products are not eligible.
func (s *Service) SendCampaign(
	ctx context.Context,
	creds integration.Credentials,
	productID, segment, email, modelURL string,
) (*generation.ActionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "studio", "send_campaign")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.SpanAttrProductID, productID)

	product, err := s.GetProduct(ctx, creds, productID, false)
	if errors.Is(err, integration.ErrProductNotFound) {
		s.metrics.RecordCampaign(ctx, telemetry.OutcomeFailure)
		return &generation.ActionResult{Success: false, Message: MessageProductNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.tracker.TriggerCampaign(ctx, email, segment, product, modelURL); err != nil {
		s.log(ctx).Error("Failed to trigger campaign",
			zap.String("product_id", productID),
			zap.String("segment", segment),
			zap.Error(err),
		)
		s.metrics.RecordCampaign(ctx, telemetry.OutcomeFailure)
		return &generation.ActionResult{Success: false, Message: MessageCampaignFailed}, nil
	}

	s.metrics.RecordCampaign(ctx, telemetry.OutcomeSuccess)
	return &generation.ActionResult{Success: true, Message: MessageCampaignTriggered}, nil
}

// GenerateVariantImage asks the vision model to turn the request into an
// image prompt for the product photo, renders it and tracks the variant.
func (s *Service) GenerateVariantImage(
	ctx context.Context,
	creds integration.Credentials,
	productID, email, request string,
) (*generation.VariantResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "studio", "generate_variant_image")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.SpanAttrProductID, productID)

	product, err := s.GetProduct(ctx, creds, productID, true)
	if errors.Is(err, integration.ErrProductNotFound) {
		s.metrics.RecordVariant(ctx, telemetry.OutcomeFailure)
		return &generation.VariantResult{Success: false, Message: MessageProductNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	imageURL, err := s.renderVariant(ctx, product, email, request)
	if err != nil {
		s.log(ctx).Error("Variant generation failed", zap.String("product_id", productID), zap.Error(err))
		s.metrics.RecordVariant(ctx, telemetry.OutcomeFailure)
		return &generation.VariantResult{Success: false, Message: MessageVariantFailed}, nil
	}

	result := &generation.VariantResult{Success: true, ImageURL: imageURL, Message: MessageVariantGenerated}
	if s.archiveEnabled() {
		key := storage.VariantKey(product.ID, s.now())
		if err := s.archive.CopyFromURL(ctx, key, imageURL); err != nil {
			s.log(ctx).Warn("Failed to archive variant image", zap.String("key", key), zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}

	s.metrics.RecordVariant(ctx, telemetry.OutcomeSuccess)
	return result, nil
}

func (s *Service) renderVariant(ctx context.Context, product *catalog.Product, email, request string) (string, error) {
	if s.vision == nil || s.images == nil {
		return "", fmt.Errorf("%w: variant pipeline", integration.ErrPlatformNotConfigured)
	}

	prompt, err := s.vision.SynthesizeVariantPrompt(ctx, product.PrimaryImage(), request)
	if err != nil {
		return "", fmt.Errorf("synthesize prompt: %w", err)
	}
	s.log(ctx).Debug("Variant prompt synthesized", zap.Int("prompt_len", len(prompt)))

	imageURL, err := s.images.GenerateImage(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	if _, err := s.tracker.TrackVariantGeneration(ctx, email, product, request, imageURL); err != nil {
		return "", fmt.Errorf("track variant: %w", err)
	}
	return imageURL, nil
}
