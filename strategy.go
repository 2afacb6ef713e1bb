package keyhole

// Strategy is one of the closed set of ways a request can authenticate.
type Strategy int

const (
	StrategyLocalSignup Strategy = iota
	StrategyLocalLogin
	StrategyExternal
)

func (s Strategy) String() string {
	switch s {
	case StrategyLocalSignup:
		return "local-signup"
	case StrategyLocalLogin:
		return "local-login"
	case StrategyExternal:
		return "external"
	}
	return "unknown"
}

// AuthenticateOptions says where to send the client after a strategy runs.
type AuthenticateOptions struct {
	SuccessRedirect string
	FailureRedirect string
}
