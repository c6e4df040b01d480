package domain

type PolicyInput struct {
	PollID       int      `json:"poll_id"`
	Verified     bool     `json:"verified"`
	Reasons      []string `json:"reasons"`
	InvalidCount int      `json:"invalid_count"`
	VotesInvalid string   `json:"votes_invalid"`
}

type PolicyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyResult struct {
	Allow bool         `json:"allow"`
	Deny  []PolicyDeny `json:"deny,omitempty"`
}

type PolicyEvaluation struct {
	BundleHash string       `json:"bundle_hash"`
	Result     PolicyResult `json:"result"`
}
