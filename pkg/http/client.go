package http

import (
	"net/http"

	"github.com/vpnda/billing-sync/pkg/utils"
)

// NewClient returns the HTTP client shared by the provider clients. No timeout
// is set, so the transport defaults apply. With debug set every request and
// response is dumped to the debug log.
func NewClient(debug bool) *http.Client {
	client := &http.Client{}
	if debug {
		client.Transport = utils.DebugRoundTripper()
	}
	return client
}
