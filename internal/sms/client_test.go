package sms

import (
	"context"
	"net"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"brokerdesk/pkg/platform/sentinel"
)

type capturedRequest struct {
	Path string
	Auth string
	Body sendRequest
}

func startGateway(t *testing.T, status int, reply string) (*Client, <-chan capturedRequest) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	got := make(chan capturedRequest, 1)
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		var body sendRequest
		_ = json.Unmarshal(ctx.PostBody(), &body)
		got <- capturedRequest{
			Path: string(ctx.Path()),
			Auth: string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)),
			Body: body,
		}
		ctx.SetStatusCode(status)
		ctx.SetBodyString(reply)
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	hc := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	c := NewClient(Config{
		BaseURL: "http://sms.test/",
		APIKey:  "secret",
		Sender:  "Brokerdesk",
		Timeout: time.Second,
	}, WithHTTPClient(hc))
	return c, got
}

func TestClientSendsMessage(t *testing.T) {
	c, got := startGateway(t, fasthttp.StatusAccepted, `{"id":"m-1"}`)

	err := c.Send(context.Background(), "0470 12 34 56", "Un document est disponible.")
	require.NoError(t, err)

	req := <-got
	assert.Equal(t, "/messages", req.Path)
	assert.Equal(t, "Bearer secret", req.Auth)
	assert.Equal(t, sendRequest{To: "+32470123456", From: "Brokerdesk", Text: "Un document est disponible."}, req.Body)
}

func TestClientServerErrorIsUnavailable(t *testing.T) {
	c, _ := startGateway(t, fasthttp.StatusBadGateway, `{"error":"upstream"}`)
	err := c.Send(context.Background(), "+32470123456", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Contains(t, err.Error(), "upstream")
}

func TestClientRejection(t *testing.T) {
	c, _ := startGateway(t, fasthttp.StatusBadRequest, `{"error":"blocked number"}`)
	err := c.Send(context.Background(), "+32470123456", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Contains(t, err.Error(), "blocked number")
}

func TestClientRefusesInvalidNumberWithoutCalling(t *testing.T) {
	c, got := startGateway(t, fasthttp.StatusOK, "")
	err := c.Send(context.Background(), "call me", "x")
	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Empty(t, got)
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"0470 12 34 56":      "+32470123456",
		"0470/12.34.56":      "+32470123456",
		"+32 470 12 34 56":   "+32470123456",
		"0033 6 12 34 56 78": "+33612345678",
		"02 555 12 12":       "+3225551212",
	}
	for in, want := range cases {
		got, err := NormalizePhone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "12345", "470123456", "+32 47x", "0470+123"} {
		_, err := NormalizePhone(bad)
		assert.ErrorIs(t, err, ErrInvalidPhone, bad)
	}
}

func TestLogSenderRecords(t *testing.T) {
	s := NewLogSender(nil)
	require.NoError(t, s.Send(context.Background(), "0470123456", "hello"))
	assert.Equal(t, []Message{{Phone: "+32470123456", Text: "hello"}}, s.Sent())
}
