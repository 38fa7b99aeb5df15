package studio

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// CreateMeshTask starts an image-to-3D job from the product's first image
func (s *Service) CreateMeshTask(ctx context.Context, creds integration.Credentials, productID string) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "studio", "create_mesh_task")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.SpanAttrProductID, productID)

	if s.mesh == nil {
		return "", fmt.Errorf("%w: mesh generator", integration.ErrPlatformNotConfigured)
	}

	product, err := s.GetProduct(ctx, creds, productID, true)
	if err != nil {
		return "", err
	}

	taskID, err := s.mesh.CreateTask(ctx, product.PrimaryImage())
	if err != nil {
		return "", err
	}
	telemetry.SetAttributes(ctx, telemetry.SpanAttrTaskID, taskID)
	s.log(ctx).Info("Mesh task created", zap.String("product_id", productID), zap.String("task_id", taskID))
	return taskID, nil
}

// GetMeshTask reports the state of an image-to-3D job
func (s *Service) GetMeshTask(ctx context.Context, taskID string) (*generation.MeshTask, error) {
	if s.mesh == nil {
		return nil, fmt.Errorf("%w: mesh generator", integration.ErrPlatformNotConfigured)
	}
	return s.mesh.GetTask(ctx, taskID)
}
