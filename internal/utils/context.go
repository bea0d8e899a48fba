// Package utils provides shared utility functions and constants
package utils

// ContextKeySession is the key used to store the session store in the echo context
const ContextKeySession = "session"

// ContextKeySessionID is the key used to store the session id in the echo context
const ContextKeySessionID = "sessionID"

// CookieName is the name of the session cookie
const CookieName = "DuckySeal"
