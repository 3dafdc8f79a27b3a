//go:build integration

package integration

import (
	"fmt"
	"os"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIEndpoint string
	Username    string
	Password    string
	Domain      string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	domain := os.Getenv("IPAM_TEST_DOMAIN")
	if domain == "" {
		domain = "example.com"
	}

	return &TestConfig{
		APIEndpoint: os.Getenv("IPAM_API"),
		Username:    os.Getenv("IPAM_USERNAME"),
		Password:    os.Getenv("IPAM_PASSWORD"),
		Domain:      domain,
		Verbose:     os.Getenv("IPAM_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.APIEndpoint == "" {
		t.Skip("IPAM_API not set, skipping integration test")
	}

	if config.Username == "" || config.Password == "" {
		t.Skip("IPAM_USERNAME or IPAM_PASSWORD not set, skipping integration test")
	}
}

// GenerateTestName returns a host name unlikely to collide with existing data
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// testLogger prints client logs through the test when IPAM_VERBOSE is set
type testLogger struct {
	t *testing.T
}

func (l testLogger) Debug(msg string, fields map[string]interface{}) { l.t.Logf("DEBUG %s %v", msg, fields) }
func (l testLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO %s %v", msg, fields) }
func (l testLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN %s %v", msg, fields) }
func (l testLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR %s %v", msg, fields) }
