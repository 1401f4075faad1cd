package apperror

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Normalize maps known lower-level failure shapes onto operational AppErrors
// with tailored messages and 4xx statuses. Anything unrecognized stays
// non-operational and is presented generically by the HTTP error handler.
func Normalize(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}

	// Echo surfaces routing misses and malformed bodies as HTTPError.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return New(msg, he.Code)
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound("No document with that ID was found")
	case errors.Is(err, primitive.ErrInvalidHex), invalidHex(err):
		return BadRequest("Invalid identifier: %v", err)
	case mongo.IsDuplicateKeyError(err):
		return BadRequest("Duplicate field value, this value must be unique")
	case errors.Is(err, jwt.ErrTokenExpired):
		return Unauthorized("Please login again! Token expired: %v", err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return Unauthorized("Please login again! Invalid token: %v", err)
	}

	return Wrap(err)
}

// invalidHex catches the decode errors ObjectIDFromHex surfaces for
// right-length ids with non-hex characters; the driver sentinel only covers
// the wrong-length case.
func invalidHex(err error) bool {
	var byteErr hex.InvalidByteError
	return errors.As(err, &byteErr) || errors.Is(err, hex.ErrLength)
}

// HTTPHandler returns the echo error handler implementing the two
// presentation modes. Dev exposes the full error plus the stack captured at
// construction; prod exposes only status and message, and collapses
// non-operational errors to a generic 500.
func HTTPHandler(prod bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ae := Normalize(err)

		if !prod {
			_ = c.JSON(ae.StatusCode, echo.Map{
				"status":     ae.Status(),
				"error":      fmt.Sprintf("%+v", err),
				"message":    ae.Message,
				"stackTrace": ae.Stack,
			})
			return
		}

		if ae.IsOperational {
			_ = c.JSON(ae.StatusCode, echo.Map{
				"status":  ae.Status(),
				"message": ae.Message,
			})
			return
		}
		c.Logger().Error(err)
		_ = c.JSON(http.StatusInternalServerError, echo.Map{
			"status":  "error",
			"message": "Something went wrong :(",
		})
	}
}
