package mart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "datamart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func sampleWarehouse() Warehouse {
	return Warehouse{
		Institutions: []InstitutionDim{
			{ID: 1, Code: "IFB", Name: "Instituto Federal de Brasília", Region: "DF", URL: "https://ifb.example"},
		},
		Campuses: []CampusDim{{ID: 1, Name: "Taguatinga"}},
		Courses:  []CourseDim{{ID: 1, Name: "Engenharia Civil", Level: "Superior"}},
		People: []PersonDim{
			{ID: 1, Name: "Ana Souza"},
			{ID: 2, Name: "Carla Mendes"},
		},
		Facts: []Fact{
			{ID: 1, Title: "Pontes de Concreto", Year: "2021", CourseID: 1, InstitutionID: 1, CampusID: 1},
		},
		AuthorBridge:  []BridgePair{{FactID: 1, PersonID: 1}},
		AdvisorBridge: []BridgePair{{FactID: 1, PersonID: 2}},
	}
}

func TestLoadAndFlatRows(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx, sampleWarehouse()))

	flat, err := store.FlatRows(ctx)
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "Pontes de Concreto", flat[0].Title)
	assert.Equal(t, "2021", flat[0].Year)
	assert.Equal(t, "Engenharia Civil", flat[0].Course)
	assert.Equal(t, "Superior", flat[0].CourseLevel)
	assert.Equal(t, "Instituto Federal de Brasília", flat[0].Institution)
	assert.Equal(t, "DF", flat[0].Region)
	assert.Equal(t, "Taguatinga", flat[0].Campus)
	assert.Equal(t, "Ana Souza", flat[0].Authors)
	assert.Equal(t, "Carla Mendes", flat[0].Advisor)
}

func TestLoadReplacesPreviousWarehouse(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx, sampleWarehouse()))

	smaller := sampleWarehouse()
	smaller.Facts = nil
	smaller.AuthorBridge = nil
	smaller.AdvisorBridge = nil
	require.NoError(t, store.Load(ctx, smaller))

	flat, err := store.FlatRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, flat)
}

func TestRejectionLog(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendRejections(ctx, []Rejection{
		{Stage: "provenance", Reason: "claimed institution does not match crawl target",
			Payload: map[string]string{"title": "Trabalho Externo"}},
		{Stage: "course_level", Reason: "course is not a higher-education program",
			Payload: map[string]string{"title": "Trabalho Técnico"}},
	}))

	total, err := store.RejectionCount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	byStage, err := store.RejectionCount(ctx, "provenance")
	require.NoError(t, err)
	assert.Equal(t, 1, byStage)

	// Rejections survive a warehouse load but not a reset.
	require.NoError(t, store.Load(ctx, sampleWarehouse()))
	total, err = store.RejectionCount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	require.NoError(t, store.ResetRejections(ctx))
	total, err = store.RejectionCount(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUpdateUnifiedNames(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	wh := sampleWarehouse()
	wh.Courses = append(wh.Courses, CourseDim{ID: 2, Name: "Eng. Civil", Level: "Superior"})
	require.NoError(t, store.Load(ctx, wh))

	names, err := store.CourseNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Engenharia Civil", "Eng. Civil"}, names)

	updated, err := store.UpdateUnifiedNames(ctx, map[string]string{
		"Eng. Civil": "Engenharia Civil",
		"Ausente":    "Qualquer",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	flat, err := store.FlatRows(ctx)
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "Engenharia Civil", flat[0].Course)
}
