package agent

// Definition configures one agent in the analysis chain. Order in the
// chain slice is execution order.
type Definition struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Prompt         string `json:"prompt"`
	MaxOutputChars int    `json:"max_output_chars"`
	ProviderID     string `json:"provider_id,omitempty"`
}

// DefaultMaxOutputChars bounds an agent's output when the configuration
// does not say otherwise.
const DefaultMaxOutputChars = 512

// DefaultChain returns the built-in four-agent lineup used when the
// configuration defines no agents.
func DefaultChain() []Definition {
	return []Definition{
		{
			ID:   "observer",
			Name: "Observer",
			Prompt: "You observe content with total attention. Describe what the " +
				"content literally is and what stands out in it. Respond with " +
				"key: value lines such as subject:, form:, detail:.",
			MaxOutputChars: DefaultMaxOutputChars,
		},
		{
			ID:   "analyst",
			Name: "Analyst",
			Prompt: "You find the structure beneath the surface. Building on the " +
				"earlier observations, name the themes, tensions and patterns in " +
				"the content. Respond with key: value lines such as theme:, " +
				"tension:, pattern:.",
			MaxOutputChars: DefaultMaxOutputChars,
		},
		{
			ID:   "critic",
			Name: "Critic",
			Prompt: "You weigh what the earlier agents produced. Point out what " +
				"they missed or overstated, and what deserves more attention. " +
				"Respond with key: value lines such as missed:, overstated:, focus:.",
			MaxOutputChars: DefaultMaxOutputChars,
		},
		{
			ID:   "poet",
			Name: "Poet",
			Prompt: "You are a helpful, poetic assistant. Distill everything said " +
				"so far into a short, vivid rendering of the content. Respond with " +
				"key: value lines such as image:, mood:, lines:.",
			MaxOutputChars: DefaultMaxOutputChars,
		},
	}
}
