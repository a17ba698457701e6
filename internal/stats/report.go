package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/blinktalk/internal/model"
	"github.com/verte-zerg/blinktalk/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions   []model.SessionRecord
	Utterances []model.Utterance
	Phrases    []model.PhraseCount
}

// BuildReport loads sessions, recent utterances and phrase counts.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, model.HistoryConfig{Since: cfg.Since})
	if err != nil {
		return Report{}, err
	}
	utterances, err := st.ListUtterances(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	phrases, err := st.PhraseCounts(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{Sessions: sessions, Utterances: utterances, Phrases: phrases}, nil
}

// Render writes every section of the report.
func (r Report) Render(w io.Writer, window, totalWidth int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderTrends(w, r.Sessions, window, totalWidth); err != nil {
		return err
	}
	if err := RenderPhraseTable(w, r.Phrases); err != nil {
		return err
	}
	return RenderTranscript(w, r.Utterances)
}
