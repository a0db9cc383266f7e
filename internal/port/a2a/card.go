package a2a

// Capabilities advertises the I/O an agent supports.
type Capabilities struct {
	TextInput  bool `json:"text_input"`
	TextOutput bool `json:"text_output"`
	Streaming  bool `json:"streaming"`
}

// Skill describes a single capability of the agent.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// AgentCard is the capability document served at WellKnownCardPath.
// Its successful retrieval is the liveness signal used by discovery.
type AgentCard struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Version      string       `json:"version"`
	URL          string       `json:"url"`
	Endpoint     string       `json:"endpoint,omitempty"`
	Capabilities Capabilities `json:"capabilities"`
	Skills       []Skill      `json:"skills,omitempty"`
}

// WellKnownCardPath is where every agent serves its card.
const WellKnownCardPath = "/.well-known/agent.json"

// BuildAgentCard returns the card of a text-in/text-out agent.
func BuildAgentCard(name, description, baseURL, endpoint string, skills ...Skill) AgentCard {
	return AgentCard{
		Name:         name,
		Description:  description,
		Version:      "1.0.0",
		URL:          baseURL,
		Endpoint:     endpoint,
		Capabilities: Capabilities{TextInput: true, TextOutput: true},
		Skills:       skills,
	}
}
