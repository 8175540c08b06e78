package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	authsvc "whistleinn/internal/app/services/auth"
	domainauth "whistleinn/internal/domain/auth"
	domainbooking "whistleinn/internal/domain/booking"
	domaincalendar "whistleinn/internal/domain/calendar"
	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
)

// respondError translates domain errors to the HTTP taxonomy: validation 400,
// auth 401, unknown id 404, date/coupon race 409, everything else 500 with a
// generic body so internals never leak.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrDatesUnavailable),
		errors.Is(err, domaincoupon.ErrRedeemConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domaincoupon.ErrNotFound),
		errors.Is(err, domainrates.ErrRateNotFound),
		errors.Is(err, domaincalendar.ErrExternalNotFound),
		errors.Is(err, domaincalendar.ErrFeedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, authsvc.ErrInvalidCredentials),
		errors.Is(err, domainauth.ErrSessionNotFound),
		errors.Is(err, domainauth.ErrTokenRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domainrates.ErrMinimumStay),
		errors.Is(err, domainrates.ErrLabelRequired),
		errors.Is(err, domainrates.ErrNoPriceOrMulti),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domaincoupon.ErrInvalid),
		errors.Is(err, domaincoupon.ErrUsesExhausted),
		errors.Is(err, domaincoupon.ErrCodeRequired),
		errors.Is(err, domaincoupon.ErrValueInvalid),
		errors.Is(err, domaincoupon.ErrUnknownKind),
		errors.Is(err, domaincalendar.ErrSourceRequired),
		errors.Is(err, domaincalendar.ErrFeedURLRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err, "request_id", c.GetString("request_id"))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
