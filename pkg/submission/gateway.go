package submission

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/aretw0/govform/pkg/domain"
)

// ConfirmationAlphabet and ConfirmationLength shape confirmation numbers.
const (
	ConfirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ConfirmationLength   = 6
)

// Gateway hands a completed application to whoever processes it.
type Gateway interface {
	Submit(ctx context.Context, sessionID string, data domain.FormData) (domain.Receipt, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, sessionID string, data domain.FormData) (domain.Receipt, error)

func (f GatewayFunc) Submit(ctx context.Context, sessionID string, data domain.FormData) (domain.Receipt, error) {
	return f(ctx, sessionID, data)
}

// SimulatedGateway always accepts and issues a random confirmation number.
type SimulatedGateway struct {
	Now func() time.Time
}

func (g SimulatedGateway) Submit(ctx context.Context, sessionID string, data domain.FormData) (domain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return domain.Receipt{}, err
	}
	id, err := NewConfirmationNumber()
	if err != nil {
		return domain.Receipt{}, err
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return domain.Receipt{ConfirmationNumber: id, SubmittedAt: now().UTC()}, nil
}

// NewConfirmationNumber returns ConfirmationLength characters drawn from
// ConfirmationAlphabet with crypto/rand.
func NewConfirmationNumber() (string, error) {
	max := big.NewInt(int64(len(ConfirmationAlphabet)))
	buf := make([]byte, ConfirmationLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate confirmation number: %w", err)
		}
		buf[i] = ConfirmationAlphabet[n.Int64()]
	}
	return string(buf), nil
}
