package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, BackendMock, cfg.Backend)
	assert.Equal(t, 30*time.Minute, cfg.SessionDuration)
	assert.Equal(t, 5*time.Minute, cfg.SessionWarning)
	assert.Equal(t, time.Second, cfg.SessionCheckInterval)
	assert.Equal(t, 800*time.Millisecond, cfg.MockDelay)
	assert.Equal(t, DefaultRegions, cfg.Regions)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "MinIO")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("SESSION_DURATION", "10m")
	t.Setenv("SESSION_WARNING", "1m")
	t.Setenv("REGIONS", "eu-north-1=Europe (Stockholm)")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMinio, cfg.Backend)
	assert.Equal(t, "localhost:9000", cfg.MinioEndpoint)
	assert.Equal(t, 10*time.Minute, cfg.SessionDuration)
	assert.Equal(t, time.Minute, cfg.SessionWarning)
	require.Len(t, cfg.Regions, 1)
	assert.Equal(t, "eu-north-1", cfg.Regions[0].Value)
	assert.Equal(t, "Europe (Stockholm)", cfg.Regions[0].Label)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "ftp")

	_, err := Load()
	assert.ErrorContains(t, err, "STORAGE_BACKEND")
}

func TestLoad_RejectsWarningLongerThanSession(t *testing.T) {
	t.Setenv("SESSION_DURATION", "5m")
	t.Setenv("SESSION_WARNING", "10m")

	_, err := Load()
	assert.ErrorContains(t, err, "SESSION_WARNING")
}

func TestParseRegions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{"empty uses defaults", "", []string{"us-east-1", "us-east-2", "us-west-1", "us-west-2", "eu-west-1", "eu-west-2", "eu-central-1", "ap-southeast-1", "ap-southeast-2", "ap-northeast-1"}, false},
		{"single pair", "us-east-1=Virginia", []string{"us-east-1"}, false},
		{"value only", "local", []string{"local"}, false},
		{"trailing separator", "a=A; b=B;", []string{"a", "b"}, false},
		{"missing value", "=Label", nil, true},
		{"only separators", ";;", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions, err := ParseRegions(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var values []string
			for _, r := range regions {
				values = append(values, r.Value)
			}
			assert.Equal(t, tt.want, values)
		})
	}
}

func TestParseRegions_DefaultsAreCopied(t *testing.T) {
	regions, err := ParseRegions("")
	require.NoError(t, err)

	regions[0].Label = "changed"
	assert.Equal(t, "US East (N. Virginia)", DefaultRegions[0].Label)
}
