package backfill

import (
	"context"

	"github.com/watchdeck/watchdeck/internal/models"
)

// RuntimeBackfill fills runtime and external catalog id on movies and
// series missing either. Only the missing field(s) are written.
type RuntimeBackfill struct {
	Screen ScreenProvider
}

func (b *RuntimeBackfill) Name() string { return "runtime" }

func (b *RuntimeBackfill) Scope() *models.Kind { return nil }

func (b *RuntimeBackfill) Selects(m *models.Media) bool {
	if m.Kind != models.KindMovie && m.Kind != models.KindSeries {
		return false
	}
	return m.Runtime == "" || m.ExternalID == ""
}

func (b *RuntimeBackfill) Fetch(ctx context.Context, m *models.Media) (func(*models.Media), error) {
	title, err := b.Screen.Search(ctx, m.Title, m.Kind)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, nil
	}

	details, err := b.Screen.Details(ctx, title.ID, m.Kind)
	if err != nil {
		return nil, err
	}
	if details == nil || (details.Runtime == "" && details.ExternalID == "") {
		return nil, nil
	}

	return func(m *models.Media) {
		if m.Runtime == "" && details.Runtime != "" {
			m.Runtime = details.Runtime
		}
		if m.ExternalID == "" && details.ExternalID != "" {
			m.ExternalID = details.ExternalID
		}
	}, nil
}
