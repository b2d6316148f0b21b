package fleetsdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Session is an authenticated session with automatic access token refresh.
// Methods are safe for concurrent use.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(client *SDKClient, tokens *TokenResponse) *Session {
	expiresAt := time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)

	// Refresh 30 seconds before actual expiry
	expiresAt = expiresAt.Add(-30 * time.Second)

	return &Session{
		client:       client,
		accessToken:  tokens.AccessToken,
		refreshToken: tokens.RefreshToken,
		expiresAt:    expiresAt,
	}
}

// AccessToken returns the current access token. Mostly useful in tests; the
// Session methods attach it automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the session's refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// getValidToken returns the access token, refreshing it first when close to
// expiry.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	token, fresh := s.accessToken, time.Now().Before(s.expiresAt)
	s.mu.RUnlock()
	if fresh {
		return token, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	tokens, err := s.client.refreshGrant(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}

	s.accessToken = tokens.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second).Add(-30 * time.Second)
	return s.accessToken, nil
}

// Logout revokes the session's refresh token.
func (s *Session) Logout(ctx context.Context) error {
	return s.client.RevokeToken(ctx, s.RefreshToken())
}

// ListVehicles lists vehicles, optionally filtered by a query string such as
// "available=true" or "brand=toyota".
func (s *Session) ListVehicles(ctx context.Context, query string) ([]VehicleResponse, error) {
	path := "/v1/vehicles"
	if query != "" {
		path += "?" + query
	}

	resp, err := s.doAuthJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var vehicles []VehicleResponse
	if err := decodeJSON(resp, &vehicles, http.StatusOK); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// GetVehicle fetches one vehicle by ID.
func (s *Session) GetVehicle(ctx context.Context, id string) (*VehicleResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodGet, "/v1/vehicles/"+id, nil)
	if err != nil {
		return nil, err
	}

	var vehicle VehicleResponse
	if err := decodeJSON(resp, &vehicle, http.StatusOK); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// CreateVehicle registers a new vehicle. Requires the ADMIN role.
func (s *Session) CreateVehicle(ctx context.Context, req VehicleRequest) (*VehicleResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodPost, "/v1/vehicles", req)
	if err != nil {
		return nil, err
	}

	var vehicle VehicleResponse
	if err := decodeJSON(resp, &vehicle, http.StatusCreated); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// UpdateVehicle replaces a vehicle's mutable fields. Requires the ADMIN role.
func (s *Session) UpdateVehicle(ctx context.Context, id string, req VehicleRequest) (*VehicleResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodPut, "/v1/vehicles/"+id, req)
	if err != nil {
		return nil, err
	}

	var vehicle VehicleResponse
	if err := decodeJSON(resp, &vehicle, http.StatusOK); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// DeleteVehicle removes a vehicle. Requires the ADMIN role.
func (s *Session) DeleteVehicle(ctx context.Context, id string) error {
	resp, err := s.doAuthJSON(ctx, http.MethodDelete, "/v1/vehicles/"+id, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ListClients lists all client accounts. Requires the ADMIN role.
func (s *Session) ListClients(ctx context.Context) ([]ClientResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodGet, "/v1/clients", nil)
	if err != nil {
		return nil, err
	}

	var clients []ClientResponse
	if err := decodeJSON(resp, &clients, http.StatusOK); err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClient fetches one client account. Requires the ADMIN role.
func (s *Session) GetClient(ctx context.Context, id string) (*ClientResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodGet, "/v1/clients/"+id, nil)
	if err != nil {
		return nil, err
	}

	var client ClientResponse
	if err := decodeJSON(resp, &client, http.StatusOK); err != nil {
		return nil, err
	}
	return &client, nil
}

// UpdateClient partially updates a client account. Requires the ADMIN role.
func (s *Session) UpdateClient(ctx context.Context, id string, req UpdateClientRequest) (*ClientResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodPatch, "/v1/clients/"+id, req)
	if err != nil {
		return nil, err
	}

	var client ClientResponse
	if err := decodeJSON(resp, &client, http.StatusOK); err != nil {
		return nil, err
	}
	return &client, nil
}

// DeactivateClient soft-deletes a client account. Requires the ADMIN role.
func (s *Session) DeactivateClient(ctx context.Context, id string) error {
	resp, err := s.doAuthJSON(ctx, http.MethodPost, "/v1/clients/"+id+"/deactivate", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// DeleteClient removes a client account. Requires the ADMIN role.
func (s *Session) DeleteClient(ctx context.Context, id string) error {
	resp, err := s.doAuthJSON(ctx, http.MethodDelete, "/v1/clients/"+id, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
