package domain

// TokenPair is the response to register, login and refresh.
type TokenPair struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int         `json:"expiresIn"`
	TokenType    string      `json:"tokenType"`
	User         UserSummary `json:"user"`
}

const TokenTypeBearer = "Bearer"
