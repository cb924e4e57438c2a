package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/repository/mocks"
)

func TestCachedDepartmentRepository_ListAll(t *testing.T) {
	ctx := context.Background()
	catalog := []model.Department{
		{Name: "SALES", AllowedDocumentTypes: []string{"hoa_don"}},
		{Name: "LEGAL", AllowedDocumentTypes: []string{"hop_dong"}},
	}

	inner := new(mocks.MockDepartmentRepository)
	inner.On("ListAll", ctx).Return(catalog, nil).Once()

	cached := repository.NewCachedDepartmentRepository(inner, time.Minute)

	// Second call must be served from cache: inner is expected exactly once.
	for i := 0; i < 3; i++ {
		got, err := cached.ListAll(ctx)
		assert.NoError(t, err)
		assert.Equal(t, catalog, got)
	}
	inner.AssertExpectations(t)
}

func TestCachedDepartmentRepository_FindByName(t *testing.T) {
	ctx := context.Background()
	catalog := []model.Department{{Name: "HR", AllowedDocumentTypes: []string{"cv"}}}

	inner := new(mocks.MockDepartmentRepository)
	inner.On("ListAll", ctx).Return(catalog, nil).Once()

	cached := repository.NewCachedDepartmentRepository(inner, time.Minute)

	_, err := cached.ListAll(ctx)
	assert.NoError(t, err)

	dept, err := cached.FindByName(ctx, "HR")
	assert.NoError(t, err)
	assert.Equal(t, "HR", dept.Name)
	inner.AssertExpectations(t)
}
