package core

import (
	"github.com/git-pkgs/npmchart/client"
)

// Type aliases so ecosystem implementations only import core.
type (
	Client     = client.Client
	Option     = client.Option
	URLBuilder = client.URLBuilder
	HTTPError  = client.HTTPError
)

// Function aliases so ecosystem implementations only import core.
var (
	DefaultClient  = client.DefaultClient
	NewClient      = client.NewClient
	WithTimeout    = client.WithTimeout
	WithMaxRetries = client.WithMaxRetries
	BuildURLs      = client.BuildURLs
)
