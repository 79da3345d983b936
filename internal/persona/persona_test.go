package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFallsBackToDefault(t *testing.T) {
	req := require.New(t)

	req.Equal(Funny, Parse("funny"))
	req.Equal(Chill, Parse("chill"))
	req.Equal(Professional, Parse("professional"))
	req.Equal(Default, Parse(""))
	req.Equal(Default, Parse("sassy"))
}

func TestSystemPromptContainsFragment(t *testing.T) {
	req := require.New(t)

	for _, p := range []Persona{Default, Funny, Chill, Professional} {
		prompt := p.SystemPrompt()
		req.True(strings.HasPrefix(prompt, "You are a helpful assistant"), "persona %s", p)
		req.Contains(prompt, "Kuwait guide")
	}

	req.Contains(Funny.SystemPrompt(), "witty")
	req.Contains(Chill.SystemPrompt(), "laid-back")
	req.Contains(Professional.SystemPrompt(), "professional personality")
	req.NotContains(Default.SystemPrompt(), "witty")
}

func TestWelcomeUsesAgentName(t *testing.T) {
	req := require.New(t)

	req.Equal("Hello! I'm Murshid, how can I help you today?", Default.Welcome("Murshid"))
	req.Contains(Funny.Welcome("Murshid"), "Murshid")
	req.Contains(Default.Welcome(""), "Agent")
}
