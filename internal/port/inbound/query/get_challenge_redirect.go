package query

// GetChallengeRedirect builds the redirect URI for a finished challenge.
type GetChallengeRedirect struct {
	SessionID string
}

func (q GetChallengeRedirect) QueryName() string {
	return "payments.get_challenge_redirect"
}

// GetChallengeRedirectResult contains the redirect URI.
type GetChallengeRedirectResult struct {
	RedirectURI string
}

// GetChallengeRedirectHandler handles the GetChallengeRedirect query.
type GetChallengeRedirectHandler = Handler[GetChallengeRedirect, GetChallengeRedirectResult]
