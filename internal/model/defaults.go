package model

import "time"

// Shared defaults used by both the server and CLI binaries.
const (
	DefaultRefreshInterval = 5 * time.Second
	DefaultPageIncrement   = 20
	DefaultSkin            = "default"
	DefaultChartFacet      = "employee"
)
