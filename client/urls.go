package client

import (
	"fmt"
	"time"
)

// URLBuilder constructs URLs for a source.
type URLBuilder interface {
	// Registry is the human-facing package page.
	Registry(name, version string) string
	// Metadata is the registry API document for the package.
	Metadata(name string) string
	// Downloads is the statistics API request for [from, until].
	Downloads(name string, from, until time.Time) string
	// PURL is the Package URL of the package.
	PURL(name, version string) string
}

// BaseURLs provides a default URLBuilder implementation.
type BaseURLs struct {
	RegistryFn  func(name, version string) string
	MetadataFn  func(name string) string
	DownloadsFn func(name string, from, until time.Time) string
	PURLFn      func(name, version string) string
}

func (b *BaseURLs) Registry(name, version string) string {
	if b.RegistryFn != nil {
		return b.RegistryFn(name, version)
	}
	return ""
}

func (b *BaseURLs) Metadata(name string) string {
	if b.MetadataFn != nil {
		return b.MetadataFn(name)
	}
	return ""
}

func (b *BaseURLs) Downloads(name string, from, until time.Time) string {
	if b.DownloadsFn != nil {
		return b.DownloadsFn(name, from, until)
	}
	return ""
}

func (b *BaseURLs) PURL(name, version string) string {
	if b.PURLFn != nil {
		return b.PURLFn(name, version)
	}
	return fmt.Sprintf("pkg:%s/%s", "generic", name)
}

// BuildURLs returns a map of all non-empty URLs for a package.
// Keys are "registry", "metadata" and "purl".
func BuildURLs(urls URLBuilder, name, version string) map[string]string {
	result := make(map[string]string)
	if v := urls.Registry(name, version); v != "" {
		result["registry"] = v
	}
	if v := urls.Metadata(name); v != "" {
		result["metadata"] = v
	}
	if v := urls.PURL(name, version); v != "" {
		result["purl"] = v
	}
	return result
}
