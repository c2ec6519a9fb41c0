package kraken

import (
	"context"
	"fmt"

	infracrypto "github.com/R3E-Network/scenario-engine/infrastructure/crypto"
	"github.com/R3E-Network/scenario-engine/internal/wsclient"
)

// Authenticator implements the Kraken challenge-response handshake (§4.4):
// send `{event: "challenge", api_key}`, wait for the server's challenge
// message, sign it, and hand the triple back for attachment to every
// subsequent private subscribe request.
type Authenticator struct {
	APIKey    string
	APISecret string
}

func (a Authenticator) Authenticate(ctx context.Context, send func([]byte) error, recv <-chan wsclient.Frame) (*wsclient.AuthPayload, error) {
	challengeReq := fmt.Sprintf(`{"event":"challenge","api_key":%q}`, a.APIKey)
	if err := send([]byte(challengeReq)); err != nil {
		return nil, fmt.Errorf("send challenge request: %w", err)
	}

	select {
	case frame := <-recv:
		if frame.Kind != wsclient.KindChallenge || frame.Challenge == "" {
			return nil, fmt.Errorf("unexpected challenge response")
		}
		signed, err := infracrypto.SignChallenge(a.APISecret, frame.Challenge)
		if err != nil {
			return nil, fmt.Errorf("sign challenge: %w", err)
		}
		return &wsclient.AuthPayload{
			APIKey:            a.APIKey,
			OriginalChallenge: frame.Challenge,
			SignedChallenge:   signed,
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
