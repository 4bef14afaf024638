package engine

// TokenKind distinguishes the two grant types a user can hold.
type TokenKind uint8

const (
	// TokenCredentials is an unproven grant. It gates nothing by itself and
	// must be upgraded through an authenticate action.
	TokenCredentials TokenKind = iota
	// TokenAuthorization is a proven grant consulted by link gating.
	TokenAuthorization
)

// String returns the token kind name for logs.
func (k TokenKind) String() string {
	if k == TokenCredentials {
		return "credentials"
	}
	return "authorization"
}

// Token is one grant held by a user: a kind, an access level, and the tick
// at which it stops counting.
type Token struct {
	Kind   TokenKind `json:"kind"`
	Level  uint8     `json:"level"`
	Expiry uint32    `json:"expiry"`
}

// DefaultTokenTTL is how many ticks a freshly issued token lives.
const DefaultTokenTTL = 8

// PruneTokens drops every token whose expiry has passed. It is called before
// any authorization check so expired grants never gate anything.
func PruneTokens(tokens []Token, tick uint32) []Token {
	kept := tokens[:0]
	for _, t := range tokens {
		if t.Expiry >= tick {
			kept = append(kept, t)
		}
	}
	return kept
}

// MaxAuthorization returns the highest level among authorization tokens.
// Credentials tokens do not count.
func MaxAuthorization(tokens []Token) uint8 {
	var max uint8
	for _, t := range tokens {
		if t.Kind == TokenAuthorization && t.Level > max {
			max = t.Level
		}
	}
	return max
}

// Authenticate consumes one credentials token of exactly the given level and
// replaces it with an authorization token of the same level expiring at the
// given tick. The credentials token is gone afterwards; a grant is never both
// kinds at once. Returns false when no matching credentials token exists.
func Authenticate(tokens []Token, level uint8, expiry uint32) ([]Token, bool) {
	for i, t := range tokens {
		if t.Kind == TokenCredentials && t.Level == level {
			tokens[i] = Token{Kind: TokenAuthorization, Level: level, Expiry: expiry}
			return tokens, true
		}
	}
	return tokens, false
}

// ExtendTokens pushes every token's expiry out by the given number of ticks.
func ExtendTokens(tokens []Token, by uint32) {
	for i := range tokens {
		tokens[i].Expiry += by
	}
}
