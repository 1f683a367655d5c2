package discordbot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	CommandProfile = "mmr"
	CommandRollup  = "mmr-rollup"

	optionName     = "name"
	optionCategory = "category"
)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandProfile: {
		Name:        CommandProfile,
		Description: "Show the MMR scorecard for a profile",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         optionName,
				Description:  "Profile name or slug",
				Required:     true,
				Autocomplete: true,
			},
		},
	},
	CommandRollup: {
		Name:        CommandRollup,
		Description: "Show pass-rate statistics for a category",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         optionCategory,
				Description:  "Category name; omit for every profile",
				Autocomplete: true,
			},
		},
	},
}

var defaultCommandOrder = []string{CommandProfile, CommandRollup}

// RegisterSlashCommands registers the named slash commands for a guild, or
// all of them when names is empty.
func RegisterSlashCommands(s *discordgo.Session, guildID string, log *zap.Logger, names ...string) error {
	if guildID == "" {
		return fmt.Errorf("discordbot: guildID is required to register slash commands")
	}
	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Warn("unknown slash command", zap.String("command", name))
			continue
		}
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition); err != nil {
			if isDuplicateCommandError(err) {
				log.Debug("slash command already registered", zap.String("command", name))
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("discordbot: slash command registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		if strings.Contains(strings.ToLower(restErr.Message.Message), "already exists") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
