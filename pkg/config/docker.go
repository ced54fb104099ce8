package config

import (
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the process runs inside a Docker container
// (/.dockerenv exists). The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker rewrites loopback hosts to host.docker.internal when
// running in a container, so SQL Server, PostgreSQL and Redis instances on the
// developer machine stay reachable. Other hosts are returned unchanged.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, inDocker bool) string {
	if !inDocker {
		return host
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return "host.docker.internal"
	default:
		return host
	}
}

// ResolveDockerHosts applies ResolveHostForDocker to every service host in c.
func (c *Config) ResolveDockerHosts() {
	c.Datasource.Host = ResolveHostForDocker(c.Datasource.Host)
	c.History.Host = ResolveHostForDocker(c.History.Host)
	c.Cache.Host = ResolveHostForDocker(c.Cache.Host)
}
