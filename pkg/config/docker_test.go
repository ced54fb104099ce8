package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveHost(t *testing.T) {
	tests := []struct {
		host     string
		inDocker bool
		want     string
	}{
		{"localhost", true, "host.docker.internal"},
		{"127.0.0.1", true, "host.docker.internal"},
		{"::1", true, "host.docker.internal"},
		{"sql.example.com", true, "sql.example.com"},
		{"", true, ""},
		{"localhost", false, "localhost"},
		{"127.0.0.1", false, "127.0.0.1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveHost(tt.host, tt.inDocker), "host=%q inDocker=%v", tt.host, tt.inDocker)
	}
}

func TestResolveHostForDocker_NonLoopbackUnchanged(t *testing.T) {
	for _, host := range []string{"mydb.example.com", "192.168.1.100", "host.docker.internal"} {
		assert.Equal(t, host, ResolveHostForDocker(host))
	}
}
