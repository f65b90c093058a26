package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookMidUsesBestLevels(t *testing.T) {
	book := clobtypes.OrderBook{
		Bids: []clobtypes.PriceLevel{{Price: "0.48", Size: "10"}, {Price: "0.50", Size: "5"}},
		Asks: []clobtypes.PriceLevel{{Price: "0.55", Size: "10"}, {Price: "0.52", Size: "5"}},
	}
	mid, err := BookMid(book)
	require.NoError(t, err)
	assert.Equal(t, "0.51", mid.String())
}

func TestBookMidEmptySide(t *testing.T) {
	_, err := BookMid(clobtypes.OrderBook{
		Bids: []clobtypes.PriceLevel{{Price: "0.50", Size: "5"}},
	})
	assert.ErrorIs(t, err, ErrNoPrice)

	_, err = BookMid(clobtypes.OrderBook{
		Bids: []clobtypes.PriceLevel{{Price: "x", Size: "5"}},
		Asks: []clobtypes.PriceLevel{{Price: "0.6", Size: "5"}},
	})
	assert.ErrorIs(t, err, ErrNoPrice)
}

func TestBookPricerMidpoint(t *testing.T) {
	var asked string
	p := newBookPricer(func(_ context.Context, tokenID string) (clobtypes.OrderBook, error) {
		asked = tokenID
		if tokenID == "down" {
			return clobtypes.OrderBook{}, errors.New("boom")
		}
		return clobtypes.OrderBook{
			Bids: []clobtypes.PriceLevel{{Price: "0.30", Size: "1"}},
			Asks: []clobtypes.PriceLevel{{Price: "0.34", Size: "1"}},
		}, nil
	}, time.Second)

	mid, err := p.Midpoint(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", asked)
	assert.Equal(t, "0.32", mid.String())

	_, err = p.Midpoint(context.Background(), "down")
	assert.Error(t, err)
}

func TestMidpointClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/midpoint" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("token_id") {
		case "mid":
			fmt.Fprint(w, `{"mid":"0.515"}`)
		case "midpoint":
			fmt.Fprint(w, `{"midpoint":0.42}`)
		case "price":
			fmt.Fprint(w, `{"midpoint":null,"price":"0.1"}`)
		case "null":
			fmt.Fprint(w, `{"midpoint":null}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewMidpointClient(srv.URL, time.Second, srv.Client())
	ctx := context.Background()

	px, err := c.Midpoint(ctx, "mid")
	require.NoError(t, err)
	assert.Equal(t, "0.515", px.String())

	px, err = c.Midpoint(ctx, "midpoint")
	require.NoError(t, err)
	assert.Equal(t, "0.42", px.String())

	px, err = c.Midpoint(ctx, "price")
	require.NoError(t, err)
	assert.Equal(t, "0.1", px.String())

	_, err = c.Midpoint(ctx, "null")
	assert.ErrorIs(t, err, ErrNoPrice)

	_, err = c.Midpoint(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoPrice)
}
