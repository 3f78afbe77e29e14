package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/convodesk/convodesk/domains/message"
	"github.com/convodesk/convodesk/domains/send"
	"github.com/convodesk/convodesk/pkg/apperror"
)

var mediaKinds = []any{
	string(message.MediaImage),
	string(message.MediaVideo),
	string(message.MediaAudio),
	string(message.MediaDocument),
	string(message.MediaSticker),
	string(message.MediaPTT),
}

func ValidateSendText(ctx context.Context, request send.TextRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ChannelID, validation.Required),
		validation.Field(&request.Phone, validation.Required),
		validation.Field(&request.Message, validation.Required),
	)

	if err != nil {
		return apperror.ValidationError(err.Error())
	}

	return nil
}

func ValidateSendMedia(ctx context.Context, request send.MediaRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ChannelID, validation.Required),
		validation.Field(&request.Phone, validation.Required),
		validation.Field(&request.Kind, validation.Required, validation.In(mediaKinds...)),
		validation.Field(&request.URL, validation.Required),
	)

	if err != nil {
		return apperror.ValidationError(err.Error())
	}

	return nil
}

func ValidateSendLocation(ctx context.Context, request send.LocationRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ChannelID, validation.Required),
		validation.Field(&request.Phone, validation.Required),
		validation.Field(&request.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&request.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)

	if err != nil {
		return apperror.ValidationError(err.Error())
	}

	return nil
}

func ValidateSendContact(ctx context.Context, request send.ContactRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ChannelID, validation.Required),
		validation.Field(&request.Phone, validation.Required),
		validation.Field(&request.ContactName, validation.Required),
		validation.Field(&request.ContactPhone, validation.Required),
	)

	if err != nil {
		return apperror.ValidationError(err.Error())
	}

	return nil
}
