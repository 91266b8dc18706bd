package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"churchsite/database"
	"churchsite/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMassService_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	s := NewMassService(db)

	none, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := s.Save(ctx, &database.MassSettings{ChurchName: "St. Mary's", MassTime: "Sunday 8:00, 10:00"})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := s.Save(ctx, &database.MassSettings{ChurchName: "St. Mary's Parish", Email: "office@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "saving again updates the same row")

	var rows int64
	require.NoError(t, db.Model(&database.MassSettings{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "St. Mary's Parish", got.ChurchName)
	assert.Equal(t, "office@example.com", got.Email)
	assert.Empty(t, got.MassTime)
}

func TestMassService_ConcurrentFirstSavesKeepOneRow(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	s := NewMassService(db)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Save(ctx, &database.MassSettings{ChurchName: fmt.Sprintf("Parish %d", i)})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var rows int64
	require.NoError(t, db.Model(&database.MassSettings{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Contains(t, got.ChurchName, "Parish ")
}

func TestMassService_SaveKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMassService(dbtest.Open(t))

	_, err := s.Save(ctx, &database.MassSettings{ChurchName: "St. Mary's"})
	require.NoError(t, err)
	first, err := s.Get(ctx)
	require.NoError(t, err)

	_, err = s.Save(ctx, &database.MassSettings{ChurchName: "St. Mary's Parish"})
	require.NoError(t, err)
	second, err := s.Get(ctx)
	require.NoError(t, err)

	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, "St. Mary's Parish", second.ChurchName)
}
