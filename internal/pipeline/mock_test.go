package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/leadbio-cli/internal/model"
	"github.com/sells-group/leadbio-cli/pkg/serper"
)

// --- Serper Mock ---

type mockSerperClient struct {
	mock.Mock
}

func (m *mockSerperClient) Search(ctx context.Context, query string) (*serper.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serper.SearchResponse), args.Error(1)
}

// --- Resolver Mock ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, targetURL string) (*model.ProfileRecord, bool) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.ProfileRecord), args.Bool(1)
}

// --- Contact Finder Mock ---

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) Find(ctx context.Context, firstName, lastName, company string) (model.Contact, error) {
	args := m.Called(ctx, firstName, lastName, company)
	return args.Get(0).(model.Contact), args.Error(1)
}

// --- Summarizer Mock ---

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, dossier string) (string, error) {
	args := m.Called(ctx, dossier)
	return args.String(0), args.Error(1)
}
