package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:    srv.URL,
		APIID:      "id-1",
		APIKey:     "key-1",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	c.batchPause = 0
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{BaseURL: "https://panel.example"})
	require.Error(t, err)

	_, err = New(Config{APIID: "x", APIKey: "y"})
	require.Error(t, err)
}

func TestServicesSendsCredentialsAndFavouriteFlag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/services", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "id-1", r.Form.Get("api_id"))
		require.Equal(t, "key-1", r.Form.Get("api_key"))
		require.Equal(t, "1", r.Form.Get("service_fav"))

		fmt.Fprint(w, `{"status":true,"data":[
			{"id":101,"name":"Likes","category":"Instagram","price":"1500.50","min":"10","max":"10000","refill":true},
			{"id":202,"name":"Views","category":"TikTok","price":800,"min":100,"max":50000,"refill":false}
		]}`)
	})

	services, err := c.Services(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2)
	require.Equal(t, int64(101), services[0].ID)
	require.InDelta(t, 1500.5, services[0].Price.Float64(), 0.001)
	require.Equal(t, 10, services[0].Min.Int())
	require.True(t, services[0].Refill)
	require.Equal(t, "TikTok", services[1].Category)
}

func TestRejectionBecomesProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":false,"msg":"invalid target"}`)
	})

	_, err := c.PlaceOrder(context.Background(), 101, "https://example.com/p/1", 500)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "order", perr.Op)
	require.Equal(t, "invalid target", perr.Message)
}

func TestPlaceOrderDecodesAcknowledgement(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "101", r.Form.Get("service"))
		require.Equal(t, "500", r.Form.Get("quantity"))
		fmt.Fprint(w, `{"status":true,"data":{"id":90001,"price":"750.00"}}`)
	})

	res, err := c.PlaceOrder(context.Background(), 101, "https://example.com/p/1", 500)
	require.NoError(t, err)
	require.Equal(t, int64(90001), res.ID)
	require.InDelta(t, 750.0, res.Price.Float64(), 0.001)
}

func TestStatusBatchChunksAndSkipsFailedRows(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		ids := r.Form.Get("id")
		require.NotEmpty(t, ids)

		fmt.Fprint(w, `{"status":true,"data":{
			"1":{"status":true,"status_text":"","charge":"10","start_count":"5","remains":"0"},
			"2":{"status":false,"msg":"order not found"}
		}}`)
	})

	// 60 ids forces two chunks of 50 and 10.
	ids := make([]int64, 60)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	out, err := c.StatusBatch(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Contains(t, out, int64(1))
	require.NotContains(t, out, int64(2))
	require.Equal(t, 0, out[int64(1)].Remains.Int())
}

func TestRefillSendsOrderID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/refill", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "90001", r.Form.Get("id_order"))
		fmt.Fprint(w, `{"status":true,"data":{"id_refill":555}}`)
	})

	res, err := c.Refill(context.Background(), 90001)
	require.NoError(t, err)
	require.Equal(t, int64(555), res.RefillID)
}

func TestHTTPErrorIsNotProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Profile(context.Background())
	require.Error(t, err)
	var perr *Error
	require.False(t, errors.As(err, &perr))
}
