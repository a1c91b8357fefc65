package notify

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/polylive/internal/domain"
)

// GameLiveMessage formats the alert for a game that appeared in the snapshot.
func GameLiveMessage(g domain.CorrelatedGame) (title, message string) {
	title = fmt.Sprintf("%s live: %s vs %s", g.Sport, g.HomeTeam, g.AwayTeam)

	var b strings.Builder
	fmt.Fprintf(&b, "Score %d-%d", g.Live.HomeScore, g.Live.AwayScore)
	if g.Live.CurrentMinute != nil {
		fmt.Fprintf(&b, " (%d')", *g.Live.CurrentMinute)
	} else if g.Live.Status != "" {
		fmt.Fprintf(&b, " (%s)", g.Live.Status)
	}
	b.WriteString("\n")

	for _, o := range g.Moneyline.Outcomes {
		if o.Price != nil {
			fmt.Fprintf(&b, "%s %.0f%%\n", o.Name, *o.Price*100)
		} else {
			fmt.Fprintf(&b, "%s n/a\n", o.Name)
		}
	}
	if m := g.Live.Momentum; m != nil && m.Direction != nil {
		fmt.Fprintf(&b, "Momentum: %s\n", *m.Direction)
	}
	b.WriteString(g.URL)
	return title, b.String()
}

// PollFailedMessage formats the alert for a poll cycle that could not run.
func PollFailedMessage(err error) (title, message string) {
	return "Live poll failed", err.Error()
}
