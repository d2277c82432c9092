package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"hotparts/pkg/contracts/domain"
)

// MockLogReader is a mock for the LogReader interface
type MockLogReader struct {
	mock.Mock
}

func (m *MockLogReader) RecentLog(ctx context.Context, limit int) ([]domain.ProcessingLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingLog), args.Error(1)
}

func (m *MockLogReader) CountLog(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockClientCounter is a mock for the ClientCounter interface
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}
