package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/queryset/internal/cli/version"
)

func TestInfo(t *testing.T) {
	info := version.Info{Version: "v0.3", GitCommit: "abc123", Platform: "linux/amd64", GoVersion: "go1.24.1"}
	assert.Equal(t, "queryset version v0.3 (linux/amd64 go1.24.1)", info.String())
	assert.Contains(t, info.Rows(), []string{"commit", "abc123"})
	assert.Equal(t, "version", info.Rows()[0][0])
}

func TestInfo_Semver(t *testing.T) {
	tests := []struct {
		version string
		want    string
		wantErr bool
	}{
		{version: "v0.3", want: "0.3.0"},
		{version: "1.2.3-rc.1", want: "1.2.3-rc.1"},
		{version: "dev", wantErr: true},
		{version: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := version.Info{Version: tt.version}.Semver()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet(t *testing.T) {
	info := version.Get()
	assert.Equal(t, version.Version, info.Version)
	assert.NotEmpty(t, info.Platform)
}
