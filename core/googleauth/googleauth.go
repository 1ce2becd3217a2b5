package googleauth

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"chatcal-api/core/constants"

	"golang.org/x/oauth2/google"
)

const (
	ScopeSpreadsheets = "https://www.googleapis.com/auth/spreadsheets"
	ScopeCalendar     = "https://www.googleapis.com/auth/calendar"
)

// NewServiceClient builds an authenticated HTTP client from a service
// account key file for the given OAuth scopes. Token refresh is handled by
// the oauth2 transport.
func NewServiceClient(ctx context.Context, credentialsFile string, scopes ...string) (*http.Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	client := conf.Client(ctx)
	client.Timeout = constants.DefaultTimeout
	return client, nil
}
