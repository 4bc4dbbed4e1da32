package offclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(primary, mirror string) *Client {
	c := New()
	c.PrimaryHost = primary
	c.MirrorHost = mirror
	return c
}

func productJSON(p *Product) []byte {
	data, _ := json.Marshal(map[string]interface{}{"status": 1, "product": p})
	return data
}

func notFoundJSON() []byte {
	return []byte(`{"status":0,"status_verbose":"product not found"}`)
}

func searchJSON(products ...Product) []byte {
	data, _ := json.Marshal(map[string]interface{}{"products": products})
	return data
}

func TestFetchByBarcode_PrimaryHit(t *testing.T) {
	var gotPath, gotUserAgent string

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write(productJSON(&Product{Code: "8901063142664", ProductName: "Milk Bikis"}))
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	product, err := c.FetchByBarcode(context.Background(), "8901063142664")

	assert.NoError(t, err)
	assert.NotNil(t, product)
	assert.Equal(t, "Milk Bikis", product.ProductName)
	assert.Equal(t, "/api/v0/product/8901063142664.json", gotPath)
	assert.Contains(t, gotUserAgent, "LabelLens", "OpenFoodFacts requires a descriptive User-Agent")
}

func TestFetchByBarcode_StripsNonDigits(t *testing.T) {
	var gotPath string

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(productJSON(&Product{Code: "8901063142664"}))
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	product, err := c.FetchByBarcode(context.Background(), " 890-1063 142664 ")

	assert.NoError(t, err)
	assert.NotNil(t, product)
	assert.Equal(t, "/api/v0/product/8901063142664.json", gotPath)
}

func TestFetchByBarcode_BlankBarcode(t *testing.T) {
	c := newTestClient("http://unused.invalid", "http://unused.invalid")

	product, err := c.FetchByBarcode(context.Background(), "--- ---")

	assert.NoError(t, err)
	assert.Nil(t, product)
}

func TestFetchByBarcode_FallsBackToMirror(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(notFoundJSON())
	}))
	defer primary.Close()

	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(productJSON(&Product{Code: "123", ProductName: "Mirror Hit"}))
	}))
	defer mirror.Close()

	c := newTestClient(primary.URL, mirror.URL)

	product, err := c.FetchByBarcode(context.Background(), "123")

	assert.NoError(t, err)
	assert.NotNil(t, product)
	assert.Equal(t, "Mirror Hit", product.ProductName)
}

func TestFetchByBarcode_FallsBackToMirrorV2(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/product/123.json" {
			w.Write(productJSON(&Product{Code: "123", ProductName: "V2 Hit"}))
			return
		}
		w.Write(notFoundJSON())
	}))
	defer mirror.Close()

	c := newTestClient(primary.URL, mirror.URL)

	product, err := c.FetchByBarcode(context.Background(), "123")

	assert.NoError(t, err)
	assert.NotNil(t, product)
	assert.Equal(t, "V2 Hit", product.ProductName)
}

func TestFetchByBarcode_SearchFallbackPrefersExactCode(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cgi/search.pl" {
			assert.Equal(t, "8901063142664", r.URL.Query().Get("search_terms"))
			w.Write(searchJSON(
				Product{Code: "111", ProductName: "Wrong Product"},
				Product{Code: "8901063142664", ProductName: "Britannia Milk Bikis"},
			))
			return
		}
		w.Write(notFoundJSON())
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	product, err := c.FetchByBarcode(context.Background(), "8901063142664")

	assert.NoError(t, err)
	assert.NotNil(t, product)
	assert.Equal(t, "Britannia Milk Bikis", product.ProductName)
}

func TestFetchByBarcode_SearchFallbackTakesFirstWithoutExactMatch(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cgi/search.pl" {
			w.Write(searchJSON(
				Product{Code: "111", ProductName: "First Result"},
				Product{Code: "222", ProductName: "Second Result"},
			))
			return
		}
		w.Write(notFoundJSON())
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	product, err := c.FetchByBarcode(context.Background(), "999")

	assert.NoError(t, err)
	assert.NotNil(t, product)
	assert.Equal(t, "First Result", product.ProductName)
}

func TestFetchByBarcode_PrimaryUnreachable(t *testing.T) {
	// A closed server simulates an unreachable mirror.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(productJSON(&Product{Code: "123", ProductName: "Still Found"}))
	}))
	defer mirror.Close()

	c := newTestClient(dead.URL, mirror.URL)

	product, err := c.FetchByBarcode(context.Background(), "123")

	assert.NoError(t, err)
	assert.NotNil(t, product)
	assert.Equal(t, "Still Found", product.ProductName)
}

func TestFetchByBarcode_AllVariantsMiss(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cgi/search.pl" {
			w.Write(searchJSON())
			return
		}
		w.Write(notFoundJSON())
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	product, err := c.FetchByBarcode(context.Background(), "4000000000000")

	assert.NoError(t, err, "a full miss is not an error")
	assert.Nil(t, product)
}

func TestFetchByBarcode_GarbageBody(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>rate limited</html>"))
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	product, err := c.FetchByBarcode(context.Background(), "123")

	assert.NoError(t, err)
	assert.Nil(t, product)
}

func TestSearchTop_Hit(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page_size"))
		w.Write(searchJSON(Product{ProductName: "Top Hit", ImageFrontURL: "http://img.example/x.jpg"}))
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	product, err := c.SearchTop(context.Background(), "Top Hit")

	assert.NoError(t, err)
	assert.NotNil(t, product)
	assert.Equal(t, "http://img.example/x.jpg", product.ImageFrontURL)
}

func TestSearchTop_Miss(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchJSON())
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	product, err := c.SearchTop(context.Background(), "nothing")

	assert.NoError(t, err)
	assert.Nil(t, product)
}

func TestSearchTop_SlowServerTimesOut(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(searchJSON(Product{ProductName: "Too Late"}))
	}))
	defer primary.Close()

	c := newTestClient(primary.URL, primary.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	product, err := c.SearchTop(ctx, "slow")

	assert.NoError(t, err)
	assert.Nil(t, product)
}
