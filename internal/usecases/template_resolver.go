package usecases

import (
	"context"
	"strings"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
)

const dateLayout = "02/01/2006"

var defaultTemplates = map[entities.Stage]string{
	entities.StagePre3: "Olá {nome}! Seu plano {plano} vence em 3 dias ({vencimento}). " +
		"Renove com antecedência para não perder o acesso.",
	entities.StagePre1: "Olá {nome}! Seu plano {plano} vence amanhã ({vencimento}). " +
		"Garanta já a sua renovação.",
	entities.StageToday: "Olá {nome}! Seu plano {plano} vence hoje ({vencimento}). " +
		"Renove agora para continuar aproveitando.",
	entities.StagePost1: "Olá {nome}! Seu plano {plano} venceu ontem ({vencimento}). " +
		"Entre em contato para reativar o seu acesso.",
	entities.StageExpired: "Olá {nome}! Seu plano {plano} está vencido desde {vencimento}. " +
		"Fale conosco para renovar.",
}

// DefaultTemplate returns the built-in text for stage, if any.
func DefaultTemplate(stage entities.Stage) (string, bool) {
	text, ok := defaultTemplates[stage]
	return text, ok
}

// TemplateView is one stage as shown in the template editor.
type TemplateView struct {
	StatusKey entities.Stage `json:"status_key"`
	Template  string         `json:"template"`
	IsCustom  bool           `json:"is_custom"`
}

type TemplateResolver struct {
	store TemplateStore
}

func NewTemplateResolver(store TemplateStore) *TemplateResolver {
	return &TemplateResolver{store: store}
}

// Resolve returns the owner's override for stage, else the built-in default.
// apperrors.ErrTemplateNotFound means there is nothing to send.
func (r *TemplateResolver) Resolve(ctx context.Context, ownerID uuid.UUID, stage entities.Stage) (string, error) {
	tpl, err := r.store.Get(ctx, ownerID, stage)
	if err != nil {
		return "", err
	}
	if tpl != nil {
		return tpl.Template, nil
	}
	if text, ok := defaultTemplates[stage]; ok {
		return text, nil
	}
	return "", apperrors.ErrTemplateNotFound
}

func (r *TemplateResolver) Save(ctx context.Context, ownerID uuid.UUID, stage entities.Stage, text string) error {
	if !stage.Valid() {
		return apperrors.Validation("status inválido")
	}
	if strings.TrimSpace(text) == "" {
		return apperrors.Validation("o modelo não pode ficar vazio")
	}
	return r.store.Upsert(ctx, ownerID, stage, text)
}

// Reset removes the override so the default applies again.
func (r *TemplateResolver) Reset(ctx context.Context, ownerID uuid.UUID, stage entities.Stage) error {
	if !stage.Valid() {
		return apperrors.Validation("status inválido")
	}
	return r.store.Delete(ctx, ownerID, stage)
}

// List returns every stage with its effective text. Stages with neither an
// override nor a default come back with an empty template.
func (r *TemplateResolver) List(ctx context.Context, ownerID uuid.UUID) ([]TemplateView, error) {
	overrides, err := r.store.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	custom := make(map[entities.Stage]string, len(overrides))
	for _, o := range overrides {
		custom[o.StatusKey] = o.Template
	}

	views := make([]TemplateView, 0, len(entities.AllStages))
	for _, stage := range entities.AllStages {
		if text, ok := custom[stage]; ok {
			views = append(views, TemplateView{StatusKey: stage, Template: text, IsCustom: true})
			continue
		}
		views = append(views, TemplateView{StatusKey: stage, Template: defaultTemplates[stage]})
	}
	return views, nil
}

// Render fills {nome}, {plano} and {vencimento}. Other placeholders are kept.
func Render(text string, client *entities.Client) string {
	replacer := strings.NewReplacer(
		"{nome}", client.Name,
		"{plano}", client.Plan,
		"{vencimento}", FormatDate(client.ExpirationDate),
	)
	return replacer.Replace(text)
}

// FormatDate renders a calendar date as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return calendarDay(t).Format(dateLayout)
}
