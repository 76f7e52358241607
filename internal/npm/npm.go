// Package npm provides the npm source: registry metadata from registry.npmjs.org
// and daily download counts from npm-stat.com.
package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/shape"
)

const (
	DefaultRegistryURL = "https://registry.npmjs.org"
	DefaultStatsURL    = "https://npm-stat.com"
	ecosystem          = "npm"
)

func init() {
	core.Register(ecosystem, core.Endpoints{
		Registry: DefaultRegistryURL,
		Stats:    DefaultStatsURL,
	}, func(endpoints core.Endpoints, client *core.Client) core.Source {
		return New(endpoints, client)
	})
}

type Source struct {
	registryURL string
	statsURL    string
	client      *core.Client
	urls        *URLs
	now         func() time.Time
}

func New(endpoints core.Endpoints, client *core.Client) *Source {
	if endpoints.Registry == "" {
		endpoints.Registry = DefaultRegistryURL
	}
	if endpoints.Stats == "" {
		endpoints.Stats = DefaultStatsURL
	}
	if client == nil {
		client = core.DefaultClient()
	}
	s := &Source{
		registryURL: strings.TrimSuffix(endpoints.Registry, "/"),
		statsURL:    strings.TrimSuffix(endpoints.Stats, "/"),
		client:      client,
		now:         time.Now,
	}
	s.urls = &URLs{registryURL: s.registryURL, statsURL: s.statsURL}
	return s
}

func (s *Source) Ecosystem() string {
	return ecosystem
}

func (s *Source) URLs() core.URLBuilder {
	return s.urls
}

type packageResponse struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Homepage    interface{}       `json:"homepage"`
	DistTags    map[string]string `json:"dist-tags"`
}

// FetchMetadata looks the package up in the registry. Every failure, including
// a response without a name or a latest dist-tag, is reported as not found.
func (s *Source) FetchMetadata(ctx context.Context, name string) (*core.Metadata, error) {
	if name == "" {
		return nil, core.ErrEmptyName
	}

	u := s.urls.Metadata(name)

	var resp packageResponse
	if err := s.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Err: err}
	}

	if resp.Name == "" {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name,
			Err: &core.MalformedError{URL: u, Reason: "missing name"}}
	}
	latest := resp.DistTags["latest"]
	if latest == "" {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name,
			Err: &core.MalformedError{URL: u, Reason: "missing dist-tags.latest"}}
	}

	return &core.Metadata{
		Name:        resp.Name,
		Description: resp.Description,
		Version:     latest,
		Homepage:    extractString(resp.Homepage),
	}, nil
}

// FetchDownloads retrieves daily download counts for [from, until] with
// leading zero days removed. A zero until means today and a zero from means
// core.Epoch.
func (s *Source) FetchDownloads(ctx context.Context, name string, until, from time.Time) (core.Series, error) {
	if name == "" {
		return nil, core.ErrEmptyName
	}
	if until.IsZero() {
		until = s.now().UTC().Truncate(24 * time.Hour)
	}
	if from.IsZero() {
		from = core.Epoch
	}

	u := s.urls.Downloads(name, from, until)

	var series core.Series
	err := s.client.Stream(ctx, u, func(r io.Reader) error {
		var err error
		series, err = decodeDownloads(r, name, u)
		return err
	})
	if err != nil {
		return nil, &core.FetchError{Ecosystem: ecosystem, Name: name, Err: err}
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})

	return shape.TrimLeadingZeros(series), nil
}

// decodeDownloads reads {"<name>": {"<date>": <count>, ...}} keeping the order
// of the date keys. Other top-level keys are skipped.
func decodeDownloads(r io.Reader, name, u string) (core.Series, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, malformed(u, err.Error())
	}

	var (
		series core.Series
		found  bool
	)
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, malformed(u, err.Error())
		}
		if key != name || found {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, malformed(u, err.Error())
			}
			continue
		}
		found = true
		series, err = decodeCounts(dec, u)
		if err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, malformed(u, err.Error())
	}
	if !found {
		return nil, malformed(u, fmt.Sprintf("no counts for %q", name))
	}
	return series, nil
}

func decodeCounts(dec *json.Decoder, u string) (core.Series, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, malformed(u, err.Error())
	}

	series := core.Series{}
	seen := make(map[string]struct{})
	for dec.More() {
		date, err := stringToken(dec)
		if err != nil {
			return nil, malformed(u, err.Error())
		}
		if _, err := time.Parse(core.DateLayout, date); err != nil {
			return nil, malformed(u, fmt.Sprintf("invalid date %q", date))
		}
		if _, dup := seen[date]; dup {
			return nil, malformed(u, fmt.Sprintf("duplicate date %q", date))
		}
		seen[date] = struct{}{}

		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return nil, malformed(u, fmt.Sprintf("count for %s: %v", date, err))
		}
		count, err := n.Int64()
		if err != nil || count < 0 {
			return nil, malformed(u, fmt.Sprintf("invalid count %q for %s", n.String(), date))
		}
		series = append(series, core.DailyCount{Date: date, Count: count})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, malformed(u, err.Error())
	}
	return series, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}

func malformed(u, reason string) error {
	return &core.MalformedError{URL: u, Reason: reason}
}

func extractString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if arr, ok := v.([]interface{}); ok && len(arr) > 0 {
		if s, ok := arr[0].(string); ok {
			return s
		}
	}
	return ""
}

type URLs struct {
	registryURL string
	statsURL    string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://www.npmjs.com/package/%s/v/%s", name, version)
	}
	return fmt.Sprintf("https://www.npmjs.com/package/%s", name)
}

func (u *URLs) Metadata(name string) string {
	return fmt.Sprintf("%s/%s", u.registryURL, url.PathEscape(name))
}

func (u *URLs) Downloads(name string, from, until time.Time) string {
	q := url.Values{}
	q.Set("package", name)
	q.Set("from", from.Format(core.DateLayout))
	q.Set("until", until.Format(core.DateLayout))
	return fmt.Sprintf("%s/api/download-counts?%s", u.statsURL, q.Encode())
}

func (u *URLs) PURL(name, version string) string {
	namespace := ""
	pkgName := name
	if strings.HasPrefix(name, "@") && strings.Contains(name, "/") {
		parts := strings.SplitN(name, "/", 2)
		namespace = "%40" + strings.TrimPrefix(parts[0], "@")
		pkgName = parts[1]
	}

	p := "pkg:npm/" + pkgName
	if namespace != "" {
		p = "pkg:npm/" + namespace + "/" + pkgName
	}
	if version != "" {
		p += "@" + version
	}
	return p
}
