// Package providers registers every answer provider with ai/core.
package providers

import (
	_ "github.com/stake-plus/mmr-scorecard/src/ai/anthropic"
	_ "github.com/stake-plus/mmr-scorecard/src/ai/canned"
	_ "github.com/stake-plus/mmr-scorecard/src/ai/openai"
)
