package quickbooks

// Client is the typed QBO API surface for one realm. It holds no state
// beyond the transport it was built with.
type Client struct {
	Transport      *Transport
	TimeActivities *TimeActivityEndpoint
	Query          *QueryEndpoint
}

// NewClient initializes the API client for an environment/realm pair.
func NewClient(environment, realmID, accessToken string) *Client {
	t := NewTransport(BaseURL(environment), realmID, accessToken)
	return &Client{
		Transport:      t,
		TimeActivities: &TimeActivityEndpoint{transport: t},
		Query:          &QueryEndpoint{transport: t},
	}
}
