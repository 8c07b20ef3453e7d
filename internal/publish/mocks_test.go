package publish

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"shorts-pipeline/internal/types"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, path string, meta types.VideoMetadata, visibility string, publishAt time.Time) (string, error) {
	args := m.Called(ctx, path, meta, visibility, publishAt)
	return args.String(0), args.Error(1)
}

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Observe(ctx context.Context, r types.PublishResult) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
