package studio

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/demo"
	"github.com/velvet/backend/internal/infrastructure/storage"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// Generate3DModel produces a 3D preview for a product. Real mode asks the
// vision models for voxel primitives; mock mode picks a stock model by title.
// Demo product ids may use the demo catalog in either mode.
func (s *Service) Generate3DModel(
	ctx context.Context,
	creds integration.Credentials,
	productID, email string,
	mode generation.Mode,
) (_ *generation.Result, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "studio", "generate_3d_model")
	defer func() {
		outcome := telemetry.OutcomeSuccess
		if err != nil {
			outcome = telemetry.OutcomeFailure
		}
		s.metrics.RecordGeneration(ctx, mode.String(), outcome)
		telemetry.EndSpan(span, err)
	}()
	telemetry.SetAttributes(ctx,
		telemetry.SpanAttrProductID, productID,
		telemetry.SpanAttrMode, mode.String(),
	)

	allowMock := mode == generation.ModeMock || catalog.IsDemoID(productID)
	product, err := s.GetProduct(ctx, creds, productID, allowMock)
	if err != nil {
		return nil, err
	}

	var result *generation.Result
	if mode == generation.ModeReal {
		result, err = s.generateVoxels(ctx, product, email)
	} else {
		result, err = s.generateMock(ctx, product, email)
	}
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(ctx, telemetry.SpanAttrTaskID, result.TaskID)
	s.recordGeneration(ctx, product, email, result)
	return result, nil
}

func (s *Service) generateVoxels(ctx context.Context, product *catalog.Product, email string) (*generation.Result, error) {
	if s.geometry == nil {
		return nil, fmt.Errorf("%w: geometry generator", integration.ErrPlatformNotConfigured)
	}
	log := s.log(ctx).With(zap.String("product_id", product.ID))
	start := time.Now()

	s.goTrack(ctx, integration.MetricGenerated3DModel, func(ctx context.Context) error {
		_, err := s.tracker.Track3DGeneration(ctx, email, product, GeneratingModelURL)
		return err
	})

	description := s.describeStructure(ctx, product)

	primitives, err := s.geometry.GenerateGeometry(ctx, product.PrimaryImage(), description)
	if err != nil {
		return nil, fmt.Errorf("generate geometry: %w", err)
	}
	if unknown := generation.CountUnknownKinds(primitives); unknown > 0 {
		log.Warn("Model returned unknown primitive kinds", zap.Int("unknown", unknown))
	}

	result := &generation.Result{
		Success:   true,
		Mode:      generation.ModeReal,
		Message:   generation.MessageVoxelGenerated,
		VoxelData: primitives,
		TaskID:    generation.NewTaskID(generation.TaskPrefixVoxel, s.now()),
	}

	if s.archiveEnabled() {
		key := storage.GenerationKey(result.TaskID)
		if err := s.archive.PutJSON(ctx, key, primitives); err != nil {
			log.Warn("Failed to archive primitive set", zap.String("key", key), zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}

	log.Info("Voxel generation finished",
		zap.Int("primitives", len(primitives)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// describeStructure asks the vision model for a shape breakdown. Failures
// leave the description empty and generation proceeds without it.
func (s *Service) describeStructure(ctx context.Context, product *catalog.Product) string {
	if s.vision == nil || product.PrimaryImage() == "" {
		return ""
	}
	description, err := s.vision.DescribeStructure(ctx, product.PrimaryImage())
	if err != nil {
		s.log(ctx).Warn("Structure analysis failed, generating without context",
			zap.String("product_id", product.ID), zap.Error(err))
		return ""
	}
	return description
}

func (s *Service) generateMock(ctx context.Context, product *catalog.Product, email string) (*generation.Result, error) {
	if err := demo.Wait(ctx, s.delays.Generate); err != nil {
		return nil, err
	}

	modelURL := demo.ModelFor(product.Title)
	if _, err := s.tracker.Track3DGeneration(ctx, email, product, modelURL); err != nil {
		s.log(ctx).Error("Marketing tracking failed", zap.String("product_id", product.ID), zap.Error(err))
	}

	return &generation.Result{
		Success:  true,
		Mode:     generation.ModeMock,
		Message:  generation.MessageMockGenerated,
		ModelURL: modelURL,
		TaskID:   generation.NewTaskID(generation.TaskPrefixMock, s.now()),
	}, nil
}

// recordGeneration appends the result to the ledger; failures are logged only
func (s *Service) recordGeneration(ctx context.Context, product *catalog.Product, email string, result *generation.Result) {
	if s.records == nil {
		return
	}
	record := generation.NewRecord(result.TaskID, product.ID, product.Title, result.Mode, string(product.Source))
	record.ModelURL = result.ModelURL
	record.PrimitiveCount = len(result.VoxelData)
	record.Email = email
	if err := s.records.Save(ctx, record); err != nil {
		s.log(ctx).Warn("Failed to record generation", zap.String("task_id", result.TaskID), zap.Error(err))
	}
}
