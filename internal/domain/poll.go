package domain

type PollType string

const (
	PollTypeAnalog          PollType = "analog"
	PollTypeNamed           PollType = "named"
	PollTypePseudoanonymous PollType = "pseudoanonymous"
	PollTypeCryptographic   PollType = "cryptographic"
)

// Poll is the backend view of a poll as far as vote verification cares.
// VotesRaw is kept as the exact text the backend delivered because the
// organization signature covers those bytes.
type Poll struct {
	ID             int      `json:"id"`
	Type           PollType `json:"type"`
	State          string   `json:"state,omitempty"`
	CryptKey       string   `json:"crypt_key,omitempty"`
	CryptSignature string   `json:"crypt_signature,omitempty"`
	VotesRaw       string   `json:"votes_raw,omitempty"`
	VotesSignature string   `json:"votes_signature,omitempty"`
	VotesInvalid   string   `json:"votesinvalid,omitempty"`
	Options        []Option `json:"options,omitempty"`
}

type Option struct {
	ID    int           `json:"id"`
	Votes []BackendVote `json:"votes,omitempty"`
}

// BackendVote is one aggregated vote record the backend stored for an option.
type BackendVote struct {
	UserToken string `json:"user_token"`
	Value     string `json:"value"`
	Weight    string `json:"weight,omitempty"`
}

func (p Poll) IsCryptographic() bool {
	return p.Type == PollTypeCryptographic
}

// HasRawVotes reports whether both fields needed for verification are set.
func (p Poll) HasRawVotes() bool {
	return p.VotesRaw != "" && p.VotesSignature != ""
}

func (p Poll) HasCryptKeys() bool {
	return p.CryptKey != "" && p.CryptSignature != ""
}
