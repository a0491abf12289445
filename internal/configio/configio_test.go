package configio

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/logger"
	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/repository"
)

func seededRepo(t *testing.T) *repository.Repository {
	t.Helper()
	ctx := context.Background()
	repo := repository.New(kv.NewMemory(), logger.Nop())

	require.NoError(t, repo.SaveMaterial(ctx, &model.Material{Name: "PA12", Color: "White", PricePerUnit: 150}))
	require.NoError(t, repo.SaveClient(ctx, &model.Client{Name: "Acme", DiscountRate: 10}))
	require.NoError(t, repo.SaveOptionPreset(ctx, &model.OptionPreset{
		Type: model.OptionPostProcessing, Name: "Sanding", PriceType: model.PriceFixed, Price: 1000,
	}))
	require.NoError(t, repo.SaveTag(ctx, &model.Tag{Name: "VIP", Color: "#fc0"}))
	require.NoError(t, repo.SaveSettings(ctx, model.Settings{"sidebarCollapsed": true, "sidebarWidth": 320.0}))
	_, err := repo.CreateQuote(ctx, "Q")
	require.NoError(t, err)
	return repo
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2026, 10, 6, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "quotecalc-config-2026-10-06.json", got)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seededRepo(t)

	data, err := New(src, Options{}).Export(ctx)
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &top))
	assert.NotContains(t, top, "quotes")
	assert.JSONEq(t, `{"sidebarCollapsed":true}`, string(top["settings"]))

	dst := repository.New(kv.NewMemory(), logger.Nop())
	require.NoError(t, New(dst, Options{}).Import(ctx, data))

	srcMaterials, _ := src.Materials(ctx)
	dstMaterials, _ := dst.Materials(ctx)
	assert.Equal(t, srcMaterials, dstMaterials)

	srcClients, _ := src.Clients(ctx)
	dstClients, _ := dst.Clients(ctx)
	assert.Equal(t, srcClients, dstClients)

	srcPresets, _ := src.OptionPresets(ctx)
	dstPresets, _ := dst.OptionPresets(ctx)
	assert.Equal(t, srcPresets, dstPresets)

	srcTags, _ := src.Tags(ctx)
	dstTags, _ := dst.Tags(ctx)
	assert.Equal(t, srcTags, dstTags)

	settings, err := dst.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Settings{"sidebarCollapsed": true}, settings)

	quotes, err := dst.Quotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, quotes, "quotes are not part of the default export")
}

func TestExportWithQuotes(t *testing.T) {
	ctx := context.Background()
	src := seededRepo(t)

	data, err := New(src, Options{IncludeQuotes: true}).Export(ctx)
	require.NoError(t, err)

	dst := repository.New(kv.NewMemory(), logger.Nop())
	require.NoError(t, New(dst, Options{IncludeQuotes: true}).Import(ctx, data))

	quotes, err := dst.Quotes(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Q", quotes[0].Name)
}

func TestImportRejectsWrongShape(t *testing.T) {
	cases := map[string]string{
		"not json":          `{oops`,
		"array at top":      `[1,2,3]`,
		"scalar at top":     `"hello"`,
		"materials object":  `{"materials":{"id":"x"}}`,
		"settings array":    `{"settings":[]}`,
		"tags null":         `{"tags":null}`,
		"bad element later": `{"materials":[],"clients":[{"discountRate":"ten"}]}`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := seededRepo(t)
			before, err := New(repo, Options{IncludeQuotes: true}).Export(ctx)
			require.NoError(t, err)

			err = New(repo, Options{}).Import(ctx, []byte(input))
			require.ErrorIs(t, err, ErrInvalidImport)

			after, err := New(repo, Options{IncludeQuotes: true}).Export(ctx)
			require.NoError(t, err)
			assertSameExceptTimestamp(t, before, after)
		})
	}
}

func TestImportPartialDocument(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)

	input := `{"tags":[],"unknown":{"anything":1},"quotes":[]}`
	require.NoError(t, New(repo, Options{}).Import(ctx, []byte(input)))

	tags, err := repo.Tags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	materials, err := repo.Materials(ctx)
	require.NoError(t, err)
	assert.Len(t, materials, 1, "absent collections are untouched")

	quotes, err := repo.Quotes(ctx)
	require.NoError(t, err)
	assert.Len(t, quotes, 1, "quotes are ignored unless enabled")

	width, err := repo.LocalSetting(ctx, "sidebarWidth")
	require.NoError(t, err)
	assert.Equal(t, 320.0, width)
}

func assertSameExceptTimestamp(t *testing.T, a, b []byte) {
	t.Helper()
	var da, db map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(a, &da))
	require.NoError(t, json.Unmarshal(b, &db))
	delete(da, "exportedAt")
	delete(db, "exportedAt")
	assert.Equal(t, len(da), len(db))
	for k, v := range da {
		assert.JSONEq(t, string(v), string(db[k]), k)
	}
}
