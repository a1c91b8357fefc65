package sofascore

import (
	"testing"

	"github.com/alanyoungcy/polylive/internal/domain"
)

func points(values ...float64) []domain.GraphPoint {
	out := make([]domain.GraphPoint, len(values))
	for i, v := range values {
		out[i] = domain.GraphPoint{Minute: float64(i + 1), Value: v}
	}
	return out
}

func TestGraphScalar(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   int
		dir    string
	}{
		{"uses last five weighted", []float64{-100, 20, 30, 40, 50, 60}, 46, domain.MomentumHome},
		{"away pressure", []float64{-30, -30}, -30, domain.MomentumAway},
		{"truncates toward zero", []float64{-15.9}, -15, domain.MomentumNeutral},
		{"band edge is neutral", []float64{15}, 15, domain.MomentumNeutral},
		{"recent point dominates", []float64{-50, 80}, 36, domain.MomentumHome},
	}
	for _, tt := range tests {
		got := GraphScalar(points(tt.values...))
		if got != tt.want {
			t.Errorf("%s: GraphScalar = %d, want %d", tt.name, got, tt.want)
		}
		if dir := GraphDirection(got); dir != tt.dir {
			t.Errorf("%s: GraphDirection(%d) = %s, want %s", tt.name, got, dir, tt.dir)
		}
	}
}

func TestStatsDirection(t *testing.T) {
	tests := []struct {
		name string
		m    domain.MomentumSnapshot
		want string
	}{
		{
			name: "possession and attacks favour home",
			m: domain.MomentumSnapshot{
				PossessionHome: intPtr(60), PossessionAway: intPtr(40),
				AttacksHome: intPtr(20), AttacksAway: intPtr(10),
			},
			want: domain.MomentumHome,
		},
		{
			name: "dangerous attacks outweigh possession",
			m: domain.MomentumSnapshot{
				PossessionHome: intPtr(65), PossessionAway: intPtr(35),
				DangerousAttacksHome: intPtr(3), DangerousAttacksAway: intPtr(9),
			},
			want: domain.MomentumAway,
		},
		{
			name: "balanced game",
			m: domain.MomentumSnapshot{
				PossessionHome: intPtr(52), PossessionAway: intPtr(48),
				AttacksHome: intPtr(30), AttacksAway: intPtr(30),
			},
			want: domain.MomentumNeutral,
		},
		{
			name: "mixed factors",
			m: domain.MomentumSnapshot{
				PossessionHome: intPtr(70), PossessionAway: intPtr(30),
				AttacksHome: intPtr(10), AttacksAway: intPtr(25),
				DangerousAttacksHome: intPtr(8), DangerousAttacksAway: intPtr(4),
			},
			want: domain.MomentumHome,
		},
		{"no factors", domain.MomentumSnapshot{}, domain.MomentumNeutral},
	}
	for _, tt := range tests {
		if got := StatsDirection(&tt.m); got != tt.want {
			t.Errorf("%s: StatsDirection = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestBuildMomentum(t *testing.T) {
	if m := buildMomentum(1, nil, matchStats{}, nil); m != nil {
		t.Fatalf("empty sources should give nil snapshot, got %+v", m)
	}

	st := matchStats{
		PossessionHome: intPtr(60), PossessionAway: intPtr(40),
		AttacksHome: intPtr(20), AttacksAway: intPtr(10),
	}
	m := buildMomentum(7, nil, st, nil)
	if m == nil || m.Direction == nil || *m.Direction != domain.MomentumHome {
		t.Fatalf("stats-only snapshot direction = %+v", m)
	}
	if m.Value != nil {
		t.Error("momentum value should be absent without graph")
	}

	m = buildMomentum(7, points(-40, -40), st, nil)
	if *m.Direction != domain.MomentumAway || *m.Value != -40 {
		t.Errorf("graph should take priority over stats, got %s/%d", *m.Direction, *m.Value)
	}

	comments := []domain.Comment{{Text: "Goal!", EventType: "goal"}}
	m = buildMomentum(7, nil, matchStats{}, comments)
	if m == nil || len(m.Comments) != 1 || m.Direction != nil {
		t.Errorf("comments-only snapshot = %+v", m)
	}
}
