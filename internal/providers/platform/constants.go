package platform

import "time"

const (
	providerName       = "platform"
	defaultHTTPTimeout = 10 * time.Second
	defaultPageType    = "Home"
	maxErrorBody       = 512
	notificationRows   = 10
)
