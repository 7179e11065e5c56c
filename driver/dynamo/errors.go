package dynamo

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/jacentio/kennel/store"
)

// mapError converts an SDK error into a *store.StatusError.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var status *store.StatusError
	if errors.As(err, &status) {
		return status
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &store.StatusError{Code: store.CodeCancelled, Message: err.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &store.StatusError{Code: store.CodeDeadlineExceeded, Message: err.Error(), Err: err}
	}

	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &store.StatusError{Code: store.CodeFailedPrecondition, Message: notFound.ErrorMessage(), Err: err}
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return &store.StatusError{Code: store.CodeUnknown, Message: err.Error(), Err: err}
	}
	return &store.StatusError{Code: codeOf(apiErr.ErrorCode()), Message: apiErr.ErrorMessage(), Err: err}
}

// codeOf maps a DynamoDB error code to a status code.
func codeOf(code string) store.Code {
	switch code {
	case "ValidationException", "SerializationException":
		return store.CodeInvalidArgument
	case "AccessDeniedException", "AccessDenied":
		return store.CodePermissionDenied
	case "UnrecognizedClientException", "ExpiredTokenException", "InvalidSignatureException",
		"IncompleteSignature", "MissingAuthenticationToken":
		return store.CodeUnauthenticated
	case "ThrottlingException", "ProvisionedThroughputExceededException",
		"RequestLimitExceeded", "LimitExceededException":
		return store.CodeResourceExhausted
	case "TransactionConflictException", "TransactionInProgressException":
		return store.CodeAborted
	case "ResourceNotFoundException":
		return store.CodeFailedPrecondition
	case "ConditionalCheckFailedException":
		return store.CodeFailedPrecondition
	case "InternalServerError":
		return store.CodeInternal
	case "ServiceUnavailable":
		return store.CodeUnavailable
	}
	if strings.HasPrefix(code, "RequestTimeout") {
		return store.CodeDeadlineExceeded
	}
	return store.CodeUnknown
}

// mapCommitError maps a failed TransactWriteItems call. A failed existence
// condition on an update means the document is missing.
func mapCommitError(err error, refs []store.DocumentRef) error {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for i, reason := range canceled.CancellationReasons {
			if reason.Code == nil || *reason.Code == "None" {
				continue
			}
			switch *reason.Code {
			case "ConditionalCheckFailed":
				if i < len(refs) {
					return store.Statusf(store.CodeNotFound, "no document to update at %s", refs[i])
				}
				return store.Statusf(store.CodeNotFound, "no document to update")
			case "TransactionConflict":
				return &store.StatusError{Code: store.CodeAborted, Message: canceled.ErrorMessage(), Err: err}
			case "ThrottlingError", "ProvisionedThroughputExceeded":
				return &store.StatusError{Code: store.CodeResourceExhausted, Message: canceled.ErrorMessage(), Err: err}
			case "ValidationError", "ItemCollectionSizeLimitExceeded":
				return &store.StatusError{Code: store.CodeInvalidArgument, Message: canceled.ErrorMessage(), Err: err}
			}
		}
		return &store.StatusError{Code: store.CodeAborted, Message: canceled.ErrorMessage(), Err: err}
	}
	return mapError(err)
}
