// Package httpx provides helper functions for creating HTTP responses.
//
// Every response carries the CORS headers, whatever its status.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Content types used by the service.
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html"
	ContentTypeXML  = "text/xml"
	ContentTypeText = "text/plain; charset=utf-8"
)

// CORSHeaders returns the cross-origin policy applied to every response.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
	}
}

// Raw creates a response with the given body and content type. An empty
// content type leaves the header unset.
func Raw(status int, contentType string, body []byte) events.APIGatewayV2HTTPResponse {
	h := CORSHeaders()
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    h,
		Body:       string(body),
	}
}

// Empty creates a body-less response, used for CORS preflight.
func Empty(status int) (events.APIGatewayV2HTTPResponse, error) {
	return Raw(status, "", nil), nil
}

// Text creates a plain-text response.
func Text(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return Raw(status, ContentTypeText, []byte(msg)), nil
}

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Error(http.StatusInternalServerError, "encode error")
	}
	return Raw(status, ContentTypeJSON, b), nil
}

// Error creates a JSON HTTP error response with the given status code and message.
func Error(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return Raw(status, ContentTypeJSON, b), nil
}
