// Package device turns raw User-Agent headers into short display names for
// session responses, logs and audit records.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent formats a User-Agent header as "Browser on OS". An empty
// header yields "Unknown Device"; unrecognized parts fall back to "Unknown
// Browser" and "Unknown OS" so the result always reads as a sentence.
func ParseUserAgent(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown Device"
	}

	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := parsed.OSInfo().Name
	if os == "" {
		os = parsed.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
