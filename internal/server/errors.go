package server

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/qube/internal/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// badRequest reports a request that breaks a business rule.
func badRequest(format string, args ...any) error {
	return status.Errorf(codes.FailedPrecondition, format, args...)
}

func forbidden() error {
	return status.Error(codes.PermissionDenied, "Insufficient privileges")
}

func unauthenticated() error {
	return status.Error(codes.Unauthenticated, "Authentication is required")
}

// missingParam reports a required request parameter that was not supplied.
func missingParam(name string) error {
	return status.Errorf(codes.InvalidArgument, "The '%s' parameter is missing", name)
}

// storeError maps store-layer errors to gRPC status codes. notFound is the
// message used when the row does not exist.
func storeError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return status.Error(codes.NotFound, notFound)
	}
	if errors.Is(err, model.ErrInvalidArgument) {
		return status.Error(codes.InvalidArgument, invalidArgumentMessage(err))
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Errorf(codes.Internal, "%v", err)
}

// toStatus converts any handler error into a gRPC status error.
func toStatus(err error) *status.Status {
	if st, ok := status.FromError(err); ok {
		return st
	}
	if errors.Is(err, model.ErrInvalidArgument) {
		return status.New(codes.InvalidArgument, invalidArgumentMessage(err))
	}
	return status.New(codes.Internal, fmt.Sprintf("%v", err))
}

// invalidArgumentMessage strips the sentinel prefix from a validation error.
func invalidArgumentMessage(err error) string {
	return strings.TrimPrefix(err.Error(), model.ErrInvalidArgument.Error()+": ")
}

// httpStatus maps a gRPC code to the matching HTTP status.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
