// Package npmchart fetches package metadata and daily download counts and
// shapes download series for charting.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/git-pkgs/npmchart"
//		_ "github.com/git-pkgs/npmchart/all"
//	)
//
//	src, err := npmchart.New("npm", npmchart.Endpoints{}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	series, err := src.FetchDownloads(context.Background(), "react", time.Time{}, time.Time{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	plot := npmchart.PlotSeries("react", "#FFD700", series, npmchart.FullRange, npmchart.DefaultMaxPoints)
//	fmt.Println(plot.Total, len(plot.Points))
package npmchart

import (
	"context"
	"fmt"
	"time"

	"github.com/git-pkgs/npmchart/client"
	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/shape"
)

// Re-export types from internal/core
type (
	// Source is the interface implemented by all download-statistics sources.
	Source = core.Source

	// Endpoints holds the upstream base URLs of a source.
	Endpoints = core.Endpoints

	// Metadata represents registry metadata about a package.
	Metadata = core.Metadata

	// DailyCount is one entry of a download series.
	DailyCount = core.DailyCount

	// Series is a chronologically ordered download series.
	Series = core.Series

	// Range selects a window of a series by position, in percent.
	Range = core.Range

	// Point is a single plotted value.
	Point = core.Point

	// Plot is a decimated, range-filtered series ready for charting.
	Plot = core.Plot

	// Granularity is the bucket size of a download series.
	Granularity = core.Granularity

	// Identifier is a parsed package name or Package URL.
	Identifier = core.Identifier

	// Both holds the outcomes of a concurrent metadata and downloads fetch.
	Both = core.Both
)

// Re-export types from client
type (
	// Client is an HTTP client with breakers and optional retries.
	Client = client.Client

	// URLBuilder constructs URLs for a source.
	URLBuilder = client.URLBuilder
)

// Re-export constants
const (
	DefaultMaxPoints = core.DefaultMaxPoints
	DateLayout       = core.DateLayout

	Day   = core.Day
	Week  = core.Week
	Month = core.Month
)

// FullRange selects the whole series.
var FullRange = core.FullRange

// Re-export errors
var (
	ErrNotFound       = core.ErrNotFound
	ErrFetchDownloads = core.ErrFetchDownloads
	ErrEmptyName      = core.ErrEmptyName
	ErrInvalidRange   = core.ErrInvalidRange
)

// Error types
type (
	HTTPError      = client.HTTPError
	NotFoundError  = core.NotFoundError
	FetchError     = core.FetchError
	MalformedError = core.MalformedError
	RateLimitError = client.RateLimitError
)

// New creates a source for the given ecosystem.
// Empty endpoints fall back to the ecosystem defaults.
// If client is nil, DefaultClient() is used.
func New(ecosystem string, endpoints Endpoints, c *Client) (Source, error) {
	return core.New(ecosystem, endpoints, c)
}

// DefaultClient returns a client with a 30s timeout, per-host circuit
// breakers and no retries.
func DefaultClient() *Client {
	return client.DefaultClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	return client.NewClient(opts...)
}

// Option configures a Client.
type Option = client.Option

// WithTimeout sets the HTTP client timeout.
var WithTimeout = client.WithTimeout

// WithMaxRetries sets the maximum number of retries.
var WithMaxRetries = client.WithMaxRetries

// SupportedEcosystems returns all registered ecosystem types.
// Note: ecosystems must be imported to be registered.
func SupportedEcosystems() []string {
	return core.SupportedEcosystems()
}

// DefaultEndpoints returns the default endpoints for an ecosystem.
func DefaultEndpoints(ecosystem string) Endpoints {
	return core.DefaultEndpoints(ecosystem)
}

// BuildURLs returns a map of all non-empty URLs for a package.
// Keys are "registry", "metadata" and "purl".
func BuildURLs(urls URLBuilder, name, version string) map[string]string {
	return client.BuildURLs(urls, name, version)
}

// ParseIdentifier accepts a plain or scoped package name or a Package URL.
func ParseIdentifier(input string) (Identifier, error) {
	return core.ParseIdentifier(input)
}

// NewFromIdentifier creates the source for a package identifier and returns
// it with the registry name of the package.
func NewFromIdentifier(input string, c *Client) (Source, string, error) {
	id, err := core.ParseIdentifier(input)
	if err != nil {
		return nil, "", err
	}
	src, err := core.New(id.Ecosystem, Endpoints{}, c)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", input, err)
	}
	return src, id.Name, nil
}

// FetchBoth fetches metadata and the download series concurrently. Each half
// reports its own error.
func FetchBoth(ctx context.Context, src Source, name string, until time.Time) Both {
	return core.FetchBoth(ctx, src, name, until)
}

// BulkFetchMetadata fetches metadata for multiple packages in parallel.
// Individual fetch errors are silently ignored - those names are omitted from results.
func BulkFetchMetadata(ctx context.Context, src Source, names []string) map[string]*Metadata {
	return core.BulkFetchMetadata(ctx, src, names)
}

// TrimLeadingZeros drops every entry before the first non-zero count.
func TrimLeadingZeros(s Series) Series {
	return shape.TrimLeadingZeros(s)
}

// Aggregate sums a daily series into week or month buckets.
func Aggregate(s Series, g Granularity) (Series, error) {
	return shape.Aggregate(s, g)
}

// PlotSeries slices s to r and decimates it to at most maxPoints points.
// Plot.Total is the sum of the window before decimation.
func PlotSeries(label, color string, s Series, r Range, maxPoints int) Plot {
	return shape.Plot(label, color, s, r, maxPoints)
}
