package intervals

import (
	"fmt"
	"net/http"
)

var statusMessages = map[int]string{
	http.StatusUnauthorized:        "Unauthorized: the intervals.icu API key is invalid or missing. Check the API_KEY setting.",
	http.StatusForbidden:           "Forbidden: the API key does not have permission to access this resource or perform this operation.",
	http.StatusNotFound:            "Not found: the requested resource does not exist. Check the athlete, activity or event id.",
	http.StatusUnprocessableEntity: "Unprocessable entity: the request parameters are invalid.",
	http.StatusTooManyRequests:     "Too many requests: the intervals.icu API rate limit was hit. Back off and retry later.",
	http.StatusInternalServerError: "Internal server error: the intervals.icu API failed to handle the request.",
	http.StatusServiceUnavailable:  "Service unavailable: the intervals.icu API is temporarily unavailable or under maintenance.",
}

// Classify maps a non-success HTTP status to a Failure. The response body
// is accepted for logging by the caller and is never copied into the message.
func Classify(statusCode int, responseBody string) *Failure {
	if msg, ok := statusMessages[statusCode]; ok {
		return newFailure(statusCode, msg)
	}
	return newFailure(statusCode, fmt.Sprintf("HTTP error: request failed with status %d", statusCode))
}
