// Package offclient queries the public OpenFoodFacts database. The service
// has historically been flaky across its mirrors and API versions, so a
// barcode lookup walks an ordered list of known-working endpoint variants
// and settles for the first hit.
package offclient

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPrimaryHost = "https://world.openfoodfacts.org"
	defaultMirrorHost  = "https://world.openfoodfacts.net"

	// OpenFoodFacts blocks requests without a descriptive User-Agent.
	defaultUserAgent = "LabelLens/1.0 (https://github.com/labellens/labellens)"

	lookupTimeout = 10 * time.Second
	searchTimeout = 3 * time.Second
)

// Product is the raw OpenFoodFacts record, reduced to the fields the
// normalizer consumes.
type Product struct {
	Code              string `json:"code"`
	ProductName       string `json:"product_name"`
	ProductNameEn     string `json:"product_name_en"`
	Brands            string `json:"brands"`
	ImageFrontURL     string `json:"image_front_url"`
	ImageURL          string `json:"image_url"`
	IngredientsText   string `json:"ingredients_text"`
	IngredientsTextEn string `json:"ingredients_text_en"`
	NutriscoreGrade   string `json:"nutriscore_grade"`
}

type Client struct {
	PrimaryHost string
	MirrorHost  string
	UserAgent   string

	lookupClient *http.Client
	searchClient *http.Client
}

func New() *Client {
	return &Client{
		PrimaryHost:  defaultPrimaryHost,
		MirrorHost:   defaultMirrorHost,
		UserAgent:    defaultUserAgent,
		lookupClient: &http.Client{Timeout: lookupTimeout},
		searchClient: &http.Client{Timeout: searchTimeout},
	}
}

// FetchByBarcode returns the first usable match for a barcode, or nil when
// every endpoint variant misses. A full miss is a normal outcome, not an
// error; individual endpoint failures are logged and absorbed.
func (c *Client) FetchByBarcode(ctx context.Context, barcode string) (*Product, error) {
	code := digitsOnly(barcode)
	if code == "" {
		return nil, nil
	}

	fetchers := []struct {
		name string
		fn   func() *Product
	}{
		{"primary v0", func() *Product {
			return c.fetchProduct(ctx, c.PrimaryHost+"/api/v0/product/"+code+".json")
		}},
		{"mirror v0", func() *Product {
			return c.fetchProduct(ctx, c.MirrorHost+"/api/v0/product/"+code+".json")
		}},
		{"mirror v2", func() *Product {
			return c.fetchProduct(ctx, c.MirrorHost+"/api/v2/product/"+code+".json")
		}},
		{"search", func() *Product {
			return c.searchByCode(ctx, code)
		}},
	}

	for _, fetcher := range fetchers {
		if product := fetcher.fn(); product != nil {
			return product, nil
		}
		log.Printf("offclient: %s lookup missed for %s", fetcher.name, code)
	}

	return nil, nil
}

// SearchTop returns the top free-text search hit, or nil when the search
// misses. Used to attach images to alternative-product names.
func (c *Client) SearchTop(ctx context.Context, query string) (*Product, error) {
	products := c.search(ctx, c.searchClient, query, 1)
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

func (c *Client) fetchProduct(ctx context.Context, rawURL string) *Product {
	var payload struct {
		Product *Product `json:"product"`
	}
	if !c.getJSON(ctx, c.lookupClient, rawURL, &payload) {
		return nil
	}
	return payload.Product
}

// searchByCode uses the barcode itself as a search query, preferring a hit
// whose own code matches exactly over the first result.
func (c *Client) searchByCode(ctx context.Context, code string) *Product {
	products := c.search(ctx, c.lookupClient, code, 5)
	if len(products) == 0 {
		return nil
	}

	for i := range products {
		if products[i].Code == code {
			return &products[i]
		}
	}
	return &products[0]
}

func (c *Client) search(ctx context.Context, client *http.Client, query string, pageSize int) []Product {
	params := url.Values{
		"search_terms":  {query},
		"search_simple": {"1"},
		"action":        {"process"},
		"json":          {"1"},
		"page_size":     {strconv.Itoa(pageSize)},
	}

	var payload struct {
		Products []Product `json:"products"`
	}
	if !c.getJSON(ctx, client, c.PrimaryHost+"/cgi/search.pl?"+params.Encode(), &payload) {
		return nil
	}
	return payload.Products
}

func (c *Client) getJSON(ctx context.Context, client *http.Client, rawURL string, out interface{}) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("offclient: request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("offclient: %s returned status %d", rawURL, resp.StatusCode)
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Printf("offclient: bad response body: %v", err)
		return false
	}
	return true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
