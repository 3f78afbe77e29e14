package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/pkg/apperror"
)

var authModes = []any{
	string(channel.AuthTokenInPath),
	string(channel.AuthTokenInHeader),
}

func ValidateCreateChannel(ctx context.Context, request channel.CreateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required),
		validation.Field(&request.Provider, validation.Required),
		validation.Field(&request.InstanceID, validation.Required),
		validation.Field(&request.SecretToken, validation.Required),
		validation.Field(&request.AuthMode, validation.Required, validation.In(authModes...)),
	)

	if err != nil {
		return apperror.ValidationError(err.Error())
	}

	return nil
}

func ValidateUpdateChannel(ctx context.Context, request channel.UpdateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.AuthMode, validation.In(authModes...)),
	)

	if err != nil {
		return apperror.ValidationError(err.Error())
	}

	return nil
}
