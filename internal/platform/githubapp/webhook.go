package githubapp

import (
	"errors"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/rsamf/gamma/internal/platform/apierr"
)

const (
	HeaderEvent     = "X-GitHub-Event"
	HeaderSignature = "X-Hub-Signature-256"
	HeaderDelivery  = "X-GitHub-Delivery"
)

// VerifySignature checks an X-Hub-Signature-256 header against the webhook
// secret. An empty header is accepted: the delivery is treated as unsigned.
// Only sha256 digests are accepted.
func (c *Client) VerifySignature(header string, body []byte) error {
	if header == "" {
		return nil
	}
	if !strings.HasPrefix(header, "sha256=") {
		return apierr.Unauthorized("invalid_signature", errors.New("signature must be sha256"))
	}
	if err := gh.ValidateSignature(header, body, c.secret); err != nil {
		return apierr.Unauthorized("invalid_signature", err)
	}
	return nil
}

// ParseEvent decodes a webhook payload into its typed go-github event.
func ParseEvent(eventType string, body []byte) (interface{}, error) {
	ev, err := gh.ParseWebHook(eventType, body)
	if err != nil {
		return nil, apierr.Invalid("invalid_payload", err)
	}
	return ev, nil
}
