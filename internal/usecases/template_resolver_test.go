package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateResolver_ResolveDefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	r := NewTemplateResolver(newFakeTemplates())

	first, err := r.Resolve(ctx, owner, entities.StagePre3)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, owner, entities.StagePre3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	def, _ := DefaultTemplate(entities.StagePre3)
	assert.Equal(t, def, first)

	require.NoError(t, r.Save(ctx, owner, entities.StagePre3, "custom {nome}"))
	got, err := r.Resolve(ctx, owner, entities.StagePre3)
	require.NoError(t, err)
	assert.Equal(t, "custom {nome}", got)

	// saving again updates in place
	require.NoError(t, r.Save(ctx, owner, entities.StagePre3, "second"))
	got, _ = r.Resolve(ctx, owner, entities.StagePre3)
	assert.Equal(t, "second", got)

	require.NoError(t, r.Reset(ctx, owner, entities.StagePre3))
	require.NoError(t, r.Reset(ctx, owner, entities.StagePre3))
	got, _ = r.Resolve(ctx, owner, entities.StagePre3)
	assert.Equal(t, def, got)

	other, _ := r.Resolve(ctx, uuid.New(), entities.StagePre3)
	assert.Equal(t, def, other, "overrides are per owner")
}

func TestTemplateResolver_NotFound(t *testing.T) {
	r := NewTemplateResolver(newFakeTemplates())
	_, err := r.Resolve(context.Background(), uuid.New(), entities.StagePre2)
	assert.True(t, errors.Is(err, apperrors.ErrTemplateNotFound))
}

func TestTemplateResolver_SaveValidation(t *testing.T) {
	r := NewTemplateResolver(newFakeTemplates())
	ctx := context.Background()
	assert.True(t, errors.Is(r.Save(ctx, uuid.New(), "bogus", "x"), apperrors.ErrValidation))
	assert.True(t, errors.Is(r.Save(ctx, uuid.New(), entities.StagePre1, "   "), apperrors.ErrValidation))
	assert.True(t, errors.Is(r.Reset(ctx, uuid.New(), "bogus"), apperrors.ErrValidation))
}

func TestTemplateResolver_List(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	r := NewTemplateResolver(newFakeTemplates())
	require.NoError(t, r.Save(ctx, owner, entities.StagePre2, "faltam dois dias"))

	views, err := r.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, views, len(entities.AllStages))

	byStage := map[entities.Stage]TemplateView{}
	for _, v := range views {
		byStage[v.StatusKey] = v
	}
	assert.True(t, byStage[entities.StagePre2].IsCustom)
	assert.Equal(t, "faltam dois dias", byStage[entities.StagePre2].Template)
	assert.False(t, byStage[entities.StageToday].IsCustom)
	assert.NotEmpty(t, byStage[entities.StageToday].Template)
	assert.Empty(t, byStage[entities.StageActive].Template)
}

func TestRender_ReplacesKnownPlaceholders(t *testing.T) {
	client := &entities.Client{
		Name:           "Maria",
		Plan:           "Premium",
		ExpirationDate: time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC),
	}
	out := Render("{nome}/{nome} - {plano} - {vencimento} - {desconhecido}", client)

	assert.Equal(t, "Maria/Maria - Premium - 07/02/2025 - {desconhecido}", out)
	for _, p := range []string{"{nome}", "{plano}", "{vencimento}"} {
		assert.False(t, strings.Contains(out, p))
	}
}

func TestRender_ValuesAreNotReinterpolated(t *testing.T) {
	client := &entities.Client{Name: "{plano}", Plan: "Basic", ExpirationDate: time.Now()}
	assert.Equal(t, "{plano} Basic", Render("{nome} {plano}", client))
}
