package etl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/config"
	"github.com/integralabs/integra-harvester/internal/mart"
	"github.com/integralabs/integra-harvester/internal/metrics"
	"github.com/integralabs/integra-harvester/internal/portal"
	"github.com/integralabs/integra-harvester/internal/rawstore"
)

func init() {
	metrics.Init()
}

func testConfig() config.Config {
	return config.Config{
		Institutions: map[string]config.Institution{
			"IFB": {BaseURL: "https://ifb.example", Region: "DF", Name: "Instituto Federal de Brasília"},
			"IFG": {BaseURL: "https://ifg.example", Region: "GO", Name: "Instituto Federal de Goiás"},
		},
	}
}

func openStores(t *testing.T) (*rawstore.Store, *mart.Store) {
	t.Helper()
	dir := t.TempDir()
	raw, err := rawstore.Open(filepath.Join(dir, "integra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, raw.Close()) })
	store, err := mart.Open(filepath.Join(dir, "datamart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return raw, store
}

func thesis(slug, title string) portal.Thesis {
	return portal.Thesis{
		AdvisorSlug:     slug,
		AdvisorName:     "Carla Mendes",
		InstitutionCode: "IFB",
		InstitutionName: "Instituto Federal de Brasília",
		Region:          "DF",
		Campus:          "taguatinga",
		Year:            "2021",
		Course:          "engenharia civil",
		Authors:         "ana souza, Carla Mendes " + portal.AdvisorMarker,
		Title:           title,
	}
}

func TestNormalizeInstitution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Instituto Federal de Brasília", "instituto federal de brasilia"},
		{"  ISTITUTO Federal de Goiás ", "instituto federal de goias"},
		{"Intituto Federal do Pará", "instituto federal do para"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, normalizeInstitution(tc.in))
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Engenharia Civil", titleCase("engenharia   civil"))
	assert.Equal(t, "Ana Souza", titleCase(" ANA SOUZA "))
	assert.Equal(t, "", titleCase("   "))
}

func TestProvenanceAccept(t *testing.T) {
	t.Parallel()

	v := newValidator(testConfig().Institutions)
	tests := []struct {
		name    string
		claimed string
		code    string
		want    bool
	}{
		{"federal institute phrase", "Instituto Federal de Brasília", "IFB", true},
		{"misspelled institute", "Istituto Federal de Brasília", "IFB", true},
		{"code embedded in claim", "IFB - Campus Gama", "IFB", true},
		{"registry full name", "instituto federal de goiás", "IFG", true},
		{"cefet member", "Centro Federal de Educação Tecnológica de Minas Gerais", "IFB", true},
		{"unrelated university", "Universidade de Brasília", "IFB", false},
		{"empty claim", "", "IFB", false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, v.accept(tc.claimed, tc.code))
		})
	}
}

func TestIsHigherEducation(t *testing.T) {
	t.Parallel()

	assert.True(t, isHigherEducation("Bacharelado em Sistemas de Informação"))
	assert.True(t, isHigherEducation("Tecnologia em Gestão Pública"))
	assert.True(t, isHigherEducation("Licenciatura em Química"))
	assert.True(t, isHigherEducation("Engenharia Elétrica"))
	assert.True(t, isHigherEducation("Curso Superior de Agronomia"))
	assert.False(t, isHigherEducation("Técnico em Informática"))
	assert.False(t, isHigherEducation(""))
}

func TestSplitAuthors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          string
		students    []string
		wantAdvisor string
	}{
		{"two students", "Alice, Bob, Carla " + portal.AdvisorMarker, []string{"Alice", "Bob"}, "Carla"},
		{"advisor only", "Carla " + portal.AdvisorMarker, nil, "Carla"},
		{"no advisor marker", "Alice, Bob", []string{"Alice", "Bob"}, ""},
		{"empty", "", nil, ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			students, advisor := splitAuthors(tc.in)
			assert.Equal(t, tc.students, students)
			assert.Equal(t, tc.wantAdvisor, advisor)
		})
	}
}

func TestTransformRun(t *testing.T) {
	t.Parallel()

	raw, store := openStores(t)
	ctx := context.Background()

	rows := []portal.Thesis{
		thesis("carla", "Pontes de Concreto"),
		thesis("carla", "Fundações Profundas"),
		{
			AdvisorSlug:     "carla",
			InstitutionCode: "IFB",
			InstitutionName: "Instituto Federal de Brasília",
			Campus:          "Gama",
			Course:          "Técnico em Edificações",
			Title:           "Trabalho Técnico",
		},
		{
			AdvisorSlug:     "carla",
			InstitutionCode: "IFB",
			InstitutionName: "Universidade de Brasília",
			Campus:          "Gama",
			Course:          "Engenharia de Software",
			Title:           "Trabalho Externo",
		},
		{
			AdvisorSlug:     "carla",
			InstitutionCode: "IFB",
			InstitutionName: "Instituto Federal de Brasília",
			Campus:          "",
			Course:          "Engenharia Ambiental",
			Title:           "Sem Campus",
		},
	}
	_, err := raw.SaveTheses(ctx, rows)
	require.NoError(t, err)

	report, err := NewTransformer(testConfig(), zap.NewNop()).Run(ctx, raw, store)
	require.NoError(t, err)

	assert.Equal(t, 5, report.InputRows)
	assert.Equal(t, 2, report.FactsLoaded)
	assert.Equal(t, 1, report.Rejections[StageCourseLevel])
	assert.Equal(t, 1, report.Rejections[StageProvenance])
	assert.Equal(t, 1, report.Rejections[StageResolution])
	assert.Equal(t, 2, report.Institutions)

	flat, err := store.FlatRows(ctx)
	require.NoError(t, err)
	require.Len(t, flat, 2)
	assert.Equal(t, "Pontes de Concreto", flat[0].Title)
	assert.Equal(t, "Engenharia Civil", flat[0].Course)
	assert.Equal(t, "Superior", flat[0].CourseLevel)
	assert.Equal(t, "Instituto Federal de Brasília", flat[0].Institution)
	assert.Equal(t, "Taguatinga", flat[0].Campus)
	assert.Equal(t, "Ana Souza", flat[0].Authors)
	assert.Equal(t, "Carla Mendes", flat[0].Advisor)

	n, err := store.RejectionCount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = store.RejectionCount(ctx, StageProvenance)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTransformRerunReplacesWarehouse(t *testing.T) {
	t.Parallel()

	raw, store := openStores(t)
	ctx := context.Background()

	_, err := raw.SaveTheses(ctx, []portal.Thesis{thesis("carla", "Pontes de Concreto")})
	require.NoError(t, err)

	tr := NewTransformer(testConfig(), zap.NewNop())
	first, err := tr.Run(ctx, raw, store)
	require.NoError(t, err)
	second, err := tr.Run(ctx, raw, store)
	require.NoError(t, err)

	// A rerun over unchanged raw data rebuilds an identical warehouse; the
	// rejection log is reset rather than accumulated.
	assert.Equal(t, first, second)
	flat, err := store.FlatRows(ctx)
	require.NoError(t, err)
	assert.Len(t, flat, 1)
}

func TestTransformEmptyRawStore(t *testing.T) {
	t.Parallel()

	raw, store := openStores(t)
	report, err := NewTransformer(testConfig(), zap.NewNop()).Run(context.Background(), raw, store)
	require.NoError(t, err)
	assert.Zero(t, report.FactsLoaded)
	assert.Equal(t, 2, report.Institutions)

	flat, err := store.FlatRows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, flat)
}
