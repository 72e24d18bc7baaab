package client_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"time"

	"github.com/adamwoolhether/llnw/client"
	"github.com/adamwoolhether/llnw/client/signer"
)

func ExampleBuild() {
	c, err := client.Build(client.Config{
		Protocol: "https",
		Host:     "api.example.com",
		Name:     "svc",
		Version:  "1",
		User:     "alice",
		APIKey:   "deadbeef",
	}, client.WithTimeout(10*time.Second))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(c.BaseURL())
	// Output: https://api.example.com/svc/v1/
}

func ExampleBuild_missingCredentials() {
	quiet := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))

	_, err := client.Build(client.Config{
		Host:    "api.example.com",
		Name:    "svc",
		Version: "1",
	}, client.WithLogger(quiet))

	fmt.Println(errors.Is(err, client.ErrMissingCredentials))
	// Output: true
}

func ExampleClient_Execute() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	c, _ := client.Build(client.Config{
		Host:    u.Host,
		Name:    "svc",
		Version: "1",
		User:    "alice",
		APIKey:  "deadbeef",
	})

	resp, err := c.Execute(context.Background(), client.Params{Endpoint: "health"}).Get()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var body struct{ Status string }
	if err := resp.Decode(&body); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp.StatusCode, body.Status)
	// Output: 200 ok
}

func ExampleClient_Execute_dryRun() {
	c, _ := client.Build(client.Config{
		Host:    "api.example.com",
		Name:    "svc",
		Version: "1",
		User:    "u",
		APIKey:  "deadbeef",
		DryRun:  true,
	}, client.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }))

	resp, _ := c.Execute(context.Background(), client.Params{
		Endpoint: "things",
		Query:    url.Values{"x": {"1"}},
	}).Get()

	d := resp.Request
	fmt.Println(d.Method, d.URL())
	fmt.Println(d.Headers.Get(signer.HeaderToken))
	// Output:
	// GET http://api.example.com/svc/v1/things?x=1
	// ee6f81d8b67587dd157d696c7367e49044186a1d003ef57f3fb8f70d7cb2277f
}

func ExampleClient_ExecuteAll() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	c, _ := client.Build(client.Config{
		Host:    u.Host,
		Name:    "svc",
		Version: "1",
		User:    "alice",
		APIKey:  "deadbeef",
	})

	g := c.ExecuteAll(context.Background(),
		client.Params{Endpoint: "a"},
		client.Params{Endpoint: "b"},
	)
	if err := g.Wait(); err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, f := range g.Futures() {
		resp, _ := f.Get()
		fmt.Println(resp.Body.(map[string]any)["path"])
	}
	// Output:
	// /svc/v1/a
	// /svc/v1/b
}
