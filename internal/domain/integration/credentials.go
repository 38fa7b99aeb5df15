package integration

// StoreCredentials is the storefront session carried by the request cookies
type StoreCredentials struct {
	Domain string
	Token  string
}

// IsComplete reports whether both the shop domain and the access token are set.
func (c StoreCredentials) IsComplete() bool {
	return c.Domain != "" && c.Token != ""
}

// MarketingCredentials is the marketing platform session carried by the request cookies
type MarketingCredentials struct {
	Token string
}

// IsConnected reports whether an OAuth token is present.
func (c MarketingCredentials) IsConnected() bool {
	return c.Token != ""
}

// Credentials groups every per-request platform session
type Credentials struct {
	Store     StoreCredentials
	Marketing MarketingCredentials
}
