package square

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// OfflineGateway stands in for Square in local development. Remote ids are
// derived from the reference id so retries are stable.
type OfflineGateway struct{}

func (OfflineGateway) RegisterOrder(_ context.Context, in RegisterOrderInput) (RegisterOrderResult, error) {
	if err := in.validate(); err != nil {
		return RegisterOrderResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway order")
	}
	return RegisterOrderResult{RemoteOrderID: "offline_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(in.ReferenceID.String())).String()}, nil
}
