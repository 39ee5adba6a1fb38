// Package web holds the embedded chat page assets.
package web

import _ "embed"

//go:embed chat.html
var ChatPage []byte
