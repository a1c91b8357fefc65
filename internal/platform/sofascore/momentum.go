package sofascore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/polylive/internal/domain"
)

const (
	graphWindow        = 5  // most recent graph points used for the scalar
	graphDirectionBand = 15 // |scalar| above this picks a side
	possessionLead     = 10 // percentage points
	voteMargin         = 1.2
)

// Momentum combines the graph, statistics and commentary endpoints for one
// fixture. Each source fails independently; nil is returned when none of them
// produced anything.
func (p *Provider) Momentum(ctx context.Context, fixtureID int64) *domain.MomentumSnapshot {
	var (
		wg       sync.WaitGroup
		graph    []domain.GraphPoint
		stats    matchStats
		comments []domain.Comment
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		pts, err := p.client.Graph(ctx, fixtureID, p.detailTimeout)
		if err != nil {
			p.logSourceFailure(ctx, "graph", fixtureID, err)
			return
		}
		graph = pts
	}()
	go func() {
		defer wg.Done()
		st, err := p.client.Statistics(ctx, fixtureID, p.detailTimeout)
		if err != nil {
			p.logSourceFailure(ctx, "statistics", fixtureID, err)
			return
		}
		stats = st
	}()
	go func() {
		defer wg.Done()
		if p.commentLimit == 0 {
			return
		}
		cs, err := p.client.Comments(ctx, fixtureID, p.commentLimit, p.detailTimeout)
		if err != nil {
			p.logSourceFailure(ctx, "comments", fixtureID, err)
			return
		}
		comments = cs
	}()
	wg.Wait()

	return buildMomentum(fixtureID, graph, stats, comments)
}

func (p *Provider) logSourceFailure(ctx context.Context, source string, fixtureID int64, err error) {
	p.logger.DebugContext(ctx, "momentum source unavailable",
		slog.String("source", source),
		slog.Int64("fixture_id", fixtureID),
		slog.String("error", err.Error()),
	)
}

// buildMomentum assembles a snapshot from whatever the sources returned.
func buildMomentum(fixtureID int64, graph []domain.GraphPoint, st matchStats, comments []domain.Comment) *domain.MomentumSnapshot {
	m := &domain.MomentumSnapshot{
		FixtureID:            fixtureID,
		PossessionHome:       st.PossessionHome,
		PossessionAway:       st.PossessionAway,
		AttacksHome:          st.AttacksHome,
		AttacksAway:          st.AttacksAway,
		DangerousAttacksHome: st.DangerousAttacksHome,
		DangerousAttacksAway: st.DangerousAttacksAway,
	}
	if len(comments) > 0 {
		m.Comments = comments
	}

	if len(graph) > 0 {
		m.Graph = graph
		value := GraphScalar(graph)
		dir := GraphDirection(value)
		m.Value, m.Direction = &value, &dir
	}
	if m.Direction == nil && m.PossessionHome != nil {
		dir := StatsDirection(m)
		m.Direction = &dir
	}

	if !m.HasData() {
		return nil
	}
	return m
}

// GraphScalar is the recency-weighted mean of the last five graph values,
// weighting the i-th point of the window by i (1-based), truncated to int.
func GraphScalar(points []domain.GraphPoint) int {
	if len(points) == 0 {
		return 0
	}
	recent := points[max(0, len(points)-graphWindow):]

	var sum, weights float64
	for i, pt := range recent {
		w := float64(i + 1)
		sum += pt.Value * w
		weights += w
	}
	return int(sum / weights)
}

// GraphDirection maps a graph scalar to a side.
func GraphDirection(value int) string {
	switch {
	case value > graphDirectionBand:
		return domain.MomentumHome
	case value < -graphDirectionBand:
		return domain.MomentumAway
	default:
		return domain.MomentumNeutral
	}
}

// StatsDirection is the fallback when no graph is available: a weighted vote
// where a possession lead of more than 10 points scores 1, more attacks score
// 1.5 and more dangerous attacks score 2. A side needs 20% more than the other
// to take the direction.
func StatsDirection(m *domain.MomentumSnapshot) string {
	var home, away float64
	factors := 0

	if m.PossessionHome != nil && m.PossessionAway != nil {
		switch {
		case *m.PossessionHome > *m.PossessionAway+possessionLead:
			home++
		case *m.PossessionAway > *m.PossessionHome+possessionLead:
			away++
		}
		factors++
	}
	if m.AttacksHome != nil && m.AttacksAway != nil {
		switch {
		case *m.AttacksHome > *m.AttacksAway:
			home += 1.5
		case *m.AttacksAway > *m.AttacksHome:
			away += 1.5
		}
		factors++
	}
	if m.DangerousAttacksHome != nil && m.DangerousAttacksAway != nil {
		switch {
		case *m.DangerousAttacksHome > *m.DangerousAttacksAway:
			home += 2
		case *m.DangerousAttacksAway > *m.DangerousAttacksHome:
			away += 2
		}
		factors++
	}

	switch {
	case factors == 0:
		return domain.MomentumNeutral
	case home > away*voteMargin:
		return domain.MomentumHome
	case away > home*voteMargin:
		return domain.MomentumAway
	default:
		return domain.MomentumNeutral
	}
}
