package handler

import (
	"errors"

	"skinvault-api/internal/cases"
	"skinvault-api/internal/scraper"
	"skinvault-api/internal/service"
	"skinvault-api/internal/steam"
	"skinvault-api/pkg/apierror"
)

// mapError translates domain errors into structured API errors.
func mapError(err error) *apierror.Error {
	switch {
	case errors.Is(err, scraper.ErrBudgetExceeded):
		return apierror.TooManyRequests("daily market request budget exhausted")
	case errors.Is(err, scraper.ErrUnreachable):
		return apierror.BadGateway("market listings unreachable")
	case errors.Is(err, service.ErrUnresolvable):
		return apierror.NotFound("no price available for this item")
	case errors.Is(err, steam.ErrInventoryPrivate):
		return apierror.Forbidden("inventory is private")
	case errors.Is(err, steam.ErrInventoryUnavailable):
		return apierror.BadGateway("inventory service unavailable")
	case errors.Is(err, cases.ErrCaseNotFound):
		return apierror.NotFound("unknown case id")
	default:
		return apierror.InternalError("")
	}
}
