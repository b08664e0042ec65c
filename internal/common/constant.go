package common

// AuthHeaderName is the HTTP header carrying the bearer token on protected
// requests.
const AuthHeaderName = "Authorization"

// BearerPrefix is the expected scheme prefix of the auth header value.
const BearerPrefix = "Bearer "
