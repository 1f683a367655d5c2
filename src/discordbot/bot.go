// Package discordbot answers MMR slash commands from the profile catalog.
package discordbot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/stake-plus/mmr-scorecard/src/config"
	"github.com/stake-plus/mmr-scorecard/src/dataset"
)

type Bot struct {
	session *discordgo.Session
	catalog *dataset.Catalog
	guildID string
	log     *zap.Logger
}

func New(cfg config.BotConfig, catalog *dataset.Catalog, log *zap.Logger) (*Bot, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("discordbot: DISCORD_TOKEN and GUILD_ID are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discordbot: create session: %w", err)
	}
	b := &Bot{session: dg, catalog: catalog, guildID: cfg.GuildID, log: log.Named("discord")}
	dg.AddHandler(b.handleReady)
	dg.AddHandler(b.handleInteraction)
	dg.Identify.Intents = discordgo.IntentsGuilds
	return b, nil
}

func (b *Bot) Start() error {
	return b.session.Open()
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	b.log.Info("logged in", zap.String("user", event.User.Username))
	if err := RegisterSlashCommands(s, b.guildID, b.log); err != nil {
		b.log.Error("register slash commands", zap.Error(err))
	}
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var resp *discordgo.InteractionResponse
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: Respond(b.catalog, i.ApplicationCommandData()),
		}
	case discordgo.InteractionApplicationCommandAutocomplete:
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionApplicationCommandAutocompleteResult,
			Data: &discordgo.InteractionResponseData{Choices: Autocomplete(b.catalog, i.ApplicationCommandData())},
		}
	default:
		return
	}
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		b.log.Warn("respond to interaction", zap.String("command", i.ApplicationCommandData().Name), zap.Error(err))
	}
}

// Respond builds the reply to a slash command.
func Respond(catalog *dataset.Catalog, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionResponseData {
	switch data.Name {
	case CommandProfile:
		name := stringOption(data, optionName)
		e, err := catalog.Find(name)
		if err != nil {
			return ephemeral(fmt.Sprintf("No profile matches %q.", name))
		}
		return &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{ProfileEmbed(e)}}

	case CommandRollup:
		category := stringOption(data, optionCategory)
		label := "All profiles"
		if category != "" {
			label = category
		}
		r := catalog.Rollup(dataset.Filter{Category: category})
		if r.Overall.Total == 0 {
			return ephemeral(fmt.Sprintf("No profiles in %q.", category))
		}
		return &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{RollupEmbed(label, r)}}
	}
	return ephemeral("Unknown command.")
}

// Autocomplete suggests profile names or categories for the focused option.
func Autocomplete(catalog *dataset.Catalog, data discordgo.ApplicationCommandInteractionData) []*discordgo.ApplicationCommandOptionChoice {
	var typed, option string
	for _, o := range data.Options {
		if o.Focused && o.Type == discordgo.ApplicationCommandOptionString {
			option, typed = o.Name, strings.ToLower(o.StringValue())
		}
	}

	var values []string
	switch option {
	case optionName:
		for _, e := range catalog.List(dataset.Filter{Query: typed}) {
			values = append(values, e.Profile.Name)
		}
	case optionCategory:
		for _, g := range catalog.Categories() {
			for _, c := range g.Categories {
				if c.Count > 0 && strings.Contains(strings.ToLower(c.Name), typed) {
					values = append(values, c.Name)
				}
			}
		}
		sort.Strings(values)
	}

	if len(values) > maxChoices {
		values = values[:maxChoices]
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))
	for _, v := range values {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
	}
	return choices
}

func stringOption(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, o := range data.Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return strings.TrimSpace(o.StringValue())
		}
	}
	return ""
}

func ephemeral(msg string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{Content: msg, Flags: discordgo.MessageFlagsEphemeral}
}
