package sandbox

import (
	"fmt"
	"net/http"

	"github.com/docker/cli/cli/connhelper"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
)

// NewRemoteManager connects to a Docker runtime on a remote host over SSH
// and proxies the same Manager contract. The endpoint has the form
// ssh://user@host[:port]; authentication is delegated to the local ssh
// agent configuration.
func NewRemoteManager(logger *zerolog.Logger, endpoint string, maxSandboxes int64) (*DockerManager, error) {
	helper, err := connhelper.GetConnectionHelper(endpoint)
	if err != nil {
		return nil, fmt.Errorf("ssh connection helper: %w", err)
	}

	httpClient := &http.Client{
		Transport: &http.Transport{DialContext: helper.Dialer},
	}
	cli, err := client.NewClientWithOpts(
		client.WithHTTPClient(httpClient),
		client.WithHost(helper.Host),
		client.WithDialContext(helper.Dialer),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("remote docker client: %w", err)
	}

	logger.Info().Str("endpoint", endpoint).Msg("using remote docker runtime")
	return newManager(cli, logger, maxSandboxes), nil
}
