package discordbot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

// Discord limits.
const (
	maxFieldValue = 1024
	maxChoices    = 25
	maxMembers    = 15
)

var bandIcons = map[mmr.Band]string{
	mmr.BandPositive: "🟢",
	mmr.BandPartial:  "🟡",
	mmr.BandFail:     "🔴",
}

// ProfileEmbed renders one evaluated profile.
func ProfileEmbed(e dataset.Entry) *discordgo.MessageEmbed {
	ev := e.Evaluation
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", mmr.Icon(ev.Outcome), e.Profile.Name),
		Description: e.Profile.Role,
		Color:       colorValue(mmr.Color(ev.Outcome)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Outcome", Value: ev.Outcome, Inline: true},
			{Name: "Category", Value: string(ev.Category), Inline: true},
			{Name: "Tally", Value: fmt.Sprintf("%d pass · %d partial · %d fail", ev.Counts.PassOrStrong, ev.Counts.PartialOrMixed, ev.Counts.Fails), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: e.Profile.Category},
	}
	if ev.Reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Why", Value: clip(ev.Reason, maxFieldValue)})
	}

	var b strings.Builder
	for _, p := range ev.Pillars {
		line := fmt.Sprintf("%s **%s**: %s", bandIcons[p.Band], p.Pillar, p.Assessment)
		if p.Missing {
			line = fmt.Sprintf("%s **%s**: not assessed", bandIcons[p.Band], p.Pillar)
		}
		if p.Priority {
			line += " ★"
		}
		b.WriteString(line + "\n")
	}
	if b.Len() > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Pillars", Value: clip(b.String(), maxFieldValue)})
	}
	return embed
}

// RollupEmbed renders the statistics of a rollup. label names the selection.
func RollupEmbed(label string, r dataset.Rollup) *discordgo.MessageEmbed {
	s := r.Overall
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("MMR rollup: %s", label),
		Description: fmt.Sprintf("**%d%%** pass rate · %s", s.PassRate, s.Level),
		Color:       rollupColor(s),
		Fields: []*discordgo.MessageEmbedField{
			{Name: string(mmr.CategoryPass), Value: strconv.Itoa(s.Pass), Inline: true},
			{Name: string(mmr.CategoryAlmostPass), Value: strconv.Itoa(s.AlmostPass), Inline: true},
			{Name: string(mmr.CategoryPartial), Value: strconv.Itoa(s.Partial), Inline: true},
			{Name: string(mmr.CategoryFail), Value: strconv.Itoa(s.Fail), Inline: true},
			{Name: "Total", Value: strconv.Itoa(s.Total), Inline: true},
		},
	}
	if len(r.Categories) == 1 {
		var b strings.Builder
		for i, m := range r.Categories[0].Members {
			if i == maxMembers {
				fmt.Fprintf(&b, "… and %d more\n", len(r.Categories[0].Members)-maxMembers)
				break
			}
			fmt.Fprintf(&b, "%s %s: %s\n", mmr.Icon(m.Outcome), m.Name, mmr.ShortLabel(m.Outcome))
		}
		if b.Len() > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Members", Value: clip(b.String(), maxFieldValue)})
		}
		return embed
	}
	var b strings.Builder
	for _, c := range r.Categories {
		fmt.Fprintf(&b, "**%s**: %d%% of %d\n", c.Name, c.Stats.PassRate, c.Stats.Total)
	}
	if b.Len() > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Categories", Value: clip(b.String(), maxFieldValue)})
	}
	return embed
}

func rollupColor(s mmr.Statistics) int {
	switch s.Level {
	case mmr.LevelStrong:
		return colorValue(mmr.Color(mmr.HighPositive))
	case mmr.LevelMixed:
		return colorValue(mmr.Color(mmr.EmergingPositive))
	case mmr.LevelNeedsImprovement:
		return colorValue(mmr.Color(mmr.Failing))
	}
	return colorValue(mmr.Color(mmr.Unknown))
}

func colorValue(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
