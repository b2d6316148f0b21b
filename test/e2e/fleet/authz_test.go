package fleet_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetyard/fleetyard/pkg/fleetsdk"
)

func testVehicle(plate string) fleetsdk.VehicleRequest {
	return fleetsdk.VehicleRequest{
		Brand:        "Toyota",
		Model:        "Corolla",
		Year:         2023,
		Color:        "grey",
		LicensePlate: plate,
		PriceCents:   9_200_000,
		Available:    true,
	}
}

// TestRoleEnforcement verifies the role matrix across the vehicle and
// client endpoints: normal users read, only admins write or administer.
func TestRoleEnforcement(t *testing.T) {
	baseURL, cleanup := setupFleetContainer(t)
	defer cleanup()

	client := fleetsdk.NewSDKClient(baseURL)
	registerAccounts(t, client)

	admin, err := client.Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err)
	user, err := client.Login(t.Context(), userEmail, userPassword)
	require.NoError(t, err)

	// Admin creates a vehicle.
	created, err := admin.CreateVehicle(t.Context(), testVehicle("E2E-0001"))
	require.NoError(t, err)
	require.Equal(t, "E2E-0001", created.LicensePlate)

	// Normal user can read it.
	vehicles, err := user.ListVehicles(t.Context(), "")
	require.NoError(t, err)
	require.Len(t, vehicles, 1)

	got, err := user.GetVehicle(t.Context(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	// Normal user cannot write.
	_, err = user.CreateVehicle(t.Context(), testVehicle("E2E-0002"))
	assertForbidden(t, err, "normal user must not create vehicles")

	err = user.DeleteVehicle(t.Context(), created.ID)
	assertForbidden(t, err, "normal user must not delete vehicles")

	// Normal user cannot administer accounts.
	_, err = user.ListClients(t.Context())
	assertForbidden(t, err, "normal user must not list clients")

	// Admin can.
	clients, err := admin.ListClients(t.Context())
	require.NoError(t, err)
	require.Len(t, clients, 2)
}

func TestAnonymousAccessDenied(t *testing.T) {
	baseURL, cleanup := setupFleetContainer(t)
	defer cleanup()

	client := fleetsdk.NewSDKClient(baseURL)
	registerAccounts(t, client)

	// A session with garbage tokens behaves like no session at all.
	forged := fleetsdk.NewSDKClient(baseURL)
	_, err := forged.AuthenticateWithRefreshToken(t.Context(), "forged-refresh-token")
	assertUnauthorized(t, err, "forged refresh token must not authenticate")
}

// TestDeactivationCutsAccess verifies that deactivating an account kills
// both its live access tokens and its refresh path.
func TestDeactivationCutsAccess(t *testing.T) {
	baseURL, cleanup := setupFleetContainer(t)
	defer cleanup()

	client := fleetsdk.NewSDKClient(baseURL)
	registerAccounts(t, client)

	admin, err := client.Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err)
	user, err := client.Login(t.Context(), userEmail, userPassword)
	require.NoError(t, err)

	// Find the normal user's account ID.
	accounts, err := admin.ListClients(t.Context())
	require.NoError(t, err)

	var userID string
	for _, account := range accounts {
		if account.Email == userEmail {
			userID = account.ID
		}
	}
	require.NotEmpty(t, userID)

	require.NoError(t, admin.DeactivateClient(t.Context(), userID))

	// The still-valid access token no longer authenticates.
	_, err = user.ListVehicles(t.Context(), "")
	assertUnauthorized(t, err, "deactivated account must lose access")

	// Neither does the password.
	_, err = client.Login(t.Context(), userEmail, userPassword)
	assertUnauthorized(t, err, "deactivated account must not log in")
}
