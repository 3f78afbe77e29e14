package application

import (
	"github.com/sirupsen/logrus"

	"github.com/convodesk/convodesk/pkg/apperror"
	"github.com/convodesk/convodesk/provider"
)

// operatorError converts a provider failure into a typed error the REST
// layer knows how to render. The raw provider detail stays in the logs;
// clients only ever see the fixed operator message for the class.
func operatorError(err error) error {
	pe, ok := provider.AsError(err)
	if !ok {
		return err
	}
	logrus.WithError(err).WithField("class", string(pe.Class)).
		Warn("[PROVIDER] Call failed")
	switch pe.Class {
	case provider.ErrMissingCredentials:
		return apperror.ValidationError(msgMissingCredentials)
	case provider.ErrInvalidCredentials:
		return apperror.ValidationError(msgInvalidCredentials)
	case provider.ErrAuthenticationFailed:
		return apperror.ValidationError(msgAuthFailed)
	case provider.ErrAPIIncompatible:
		return apperror.UpstreamError(msgAPIIncompatible)
	default:
		return apperror.UpstreamError(msgTransient)
	}
}
