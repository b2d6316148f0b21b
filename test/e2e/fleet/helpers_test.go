package fleet_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fleetyard/fleetyard/pkg/fleetsdk"
)

/*
 * Common constants and helper functions for fleetyard end-to-end tests.
 * This includes container setup, account bootstrapping, and assertions.
 */

const (
	testImageName = "fleetyard-test:latest"

	testSecret    = "e2e-test-secret-0123456789abcdef0123456789"
	adminEmail    = "admin@fleetyard.test"
	adminPassword = "Admin123!pass"
	userEmail     = "user@fleetyard.test"
	userPassword  = "User123!pass"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building fleetyard Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up fleetyard Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/fleetyard/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.Command("docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

// setupFleetContainer starts the service with relaxed rate limits and
// returns its base URL. Tests that exercise rate limiting should use
// setupFleetContainerWithDefaultRateLimits instead.
func setupFleetContainer(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	})
}

// setupFleetContainerWithDefaultRateLimits starts the service with the
// production rate limits, for testing that rate limiting actually works.
func setupFleetContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, nil)
}

func startContainer(t *testing.T, extraEnv map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"FLEET_SECRET":        testSecret,
		"FLEET_ISSUER":        "fleetyard-e2e",
		"FLEET_DATABASE_FILE": "/tmp/fleetyard.db",
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// registerAccounts creates one admin and one normal account on a fresh
// service instance.
func registerAccounts(t *testing.T, client *fleetsdk.SDKClient) {
	t.Helper()

	_, err := client.Register(t.Context(), fleetsdk.RegisterRequest{
		Name:     "Admin",
		Email:    adminEmail,
		Password: adminPassword,
		Role:     "ADMIN",
	})
	require.NoError(t, err)

	_, err = client.Register(t.Context(), fleetsdk.RegisterRequest{
		Name:     "Regular User",
		Email:    userEmail,
		Password: userPassword,
	})
	require.NoError(t, err)
}

// assertTokenResponse verifies a session carries a usable token pair.
func assertSessionTokens(t *testing.T, session *fleetsdk.Session) {
	t.Helper()
	require.NotNil(t, session)
	require.NotEmpty(t, session.AccessToken(), "Access token should not be empty")
	require.NotEmpty(t, session.RefreshToken(), "Refresh token should not be empty")
}

// assertUnauthorized checks that an error is a 401 APIError.
func assertUnauthorized(t *testing.T, err error, context string) {
	t.Helper()
	require.Error(t, err, context)

	var apiErr *fleetsdk.APIError
	require.ErrorAs(t, err, &apiErr, context)
	require.Equal(t, 401, apiErr.StatusCode, context)
}

// assertForbidden checks that an error is a 403 APIError.
func assertForbidden(t *testing.T, err error, context string) {
	t.Helper()
	require.Error(t, err, context)

	var apiErr *fleetsdk.APIError
	require.ErrorAs(t, err, &apiErr, context)
	require.Equal(t, 403, apiErr.StatusCode, context)
}
