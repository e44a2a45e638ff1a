package usecase

import (
	"fmt"
	"sort"
	"strings"

	"channel-signature-bot/internal/domain"
)

// StatsUsecase summarises signed posts per registered channel.
type StatsUsecase struct {
	channels domain.ChannelRepository
	repo     domain.SignStatRepository
}

func NewStatsUsecase(channels domain.ChannelRepository, repo domain.SignStatRepository) *StatsUsecase {
	return &StatsUsecase{channels: channels, repo: repo}
}

func (u *StatsUsecase) Summary() string {
	labels, values := u.GraphData()
	if len(labels) == 0 {
		return "No signature statistics yet"
	}
	total := 0
	for _, v := range values {
		total += v
	}
	var b strings.Builder
	b.WriteString("📊 Signed posts per channel:\n")
	for i, l := range labels {
		fmt.Fprintf(&b, "- %s: %d %s\n", l, values[i], bar20(values[i], total))
	}
	fmt.Fprintf(&b, "Total: %d", total)
	return b.String()
}

// GraphData returns channel labels and signed-post counts, busiest first.
// Registered channels without signed posts are listed with zero; channels
// removed from the registry keep their id as label.
func (u *StatsUsecase) GraphData() ([]string, []int) {
	counts, err := u.repo.Counts()
	if err != nil {
		counts = map[string]int{}
	}
	type row struct {
		label string
		value int
	}
	rows := make([]row, 0, len(counts))
	seen := make(map[string]struct{})
	for _, c := range u.channels.List() {
		seen[c.ID] = struct{}{}
		rows = append(rows, row{label: c.Name, value: counts[c.ID]})
	}
	for id, n := range counts {
		if _, ok := seen[id]; !ok {
			rows = append(rows, row{label: id, value: n})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].value != rows[j].value {
			return rows[i].value > rows[j].value
		}
		return rows[i].label < rows[j].label
	})
	labels := make([]string, 0, len(rows))
	values := make([]int, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.label)
		values = append(values, r.value)
	}
	return labels, values
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}
